package asset

import (
	"github.com/tidwall/gjson"
)

// Type is the type label reported by the remote catalog for an asset.
type Type string

const (
	Image             Type = "Image"
	FeatureCollection Type = "FeatureCollection"
	Folder            Type = "Folder"
	ImageCollection   Type = "ImageCollection"
)

// Kind describes how an asset participates in the asset tree.
type Kind int

const (
	// Unknown is any type this package does not know how to handle.
	Unknown Kind = iota
	// Leaf assets have no children.
	Leaf
	// Container assets hold child assets.
	Container
)

func (k Kind) String() string {

	switch k {
	case Leaf:
		return "leaf"
	case Container:
		return "container"
	default:
		return "unknown"
	}
}

// KindOf returns the Kind for a given Type.
func KindOf(t Type) Kind {

	switch t {
	case Image, FeatureCollection:
		return Leaf
	case Folder, ImageCollection:
		return Container
	default:
		return Unknown
	}
}

// Asset is a remote-stored object (image, table or container) addressed by a path-like identifier.
type Asset struct {
	// The path-like identifier of the asset, for example "users/example/collection/image".
	ID string `json:"id"`
	// The type reported by the catalog.
	Type Type `json:"type"`
	// An optional JSON-encoded dictionary of asset properties.
	Properties []byte `json:"-"`
}

// Kind returns the Kind of the asset's type.
func (a *Asset) Kind() Kind {
	return KindOf(a.Type)
}

// Name returns the last segment of the asset's identifier.
func (a *Asset) Name() string {
	return Name(a.ID)
}

// Property returns the value for a key in the asset's properties.
func (a *Asset) Property(key string) gjson.Result {

	if len(a.Properties) == 0 {
		return gjson.Result{}
	}

	return gjson.GetBytes(a.Properties, gjson.Escape(key))
}
