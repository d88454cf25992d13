package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sfomuseum/go-geetools/cli"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.ExecuteContext(ctx)

	if err != nil {
		stop()
		os.Exit(1)
	}
}
