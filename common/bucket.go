package common

/*

Buckets are opened as one-offs, by whoever needs them, and closed by the same
code. A catalog owns the bucket it opened from a URI and closes it in its own
Close method; a catalog created with an existing bucket leaves it alone. A
shared pool of buckets doesn't work because calling Close on a pooled bucket
breaks it for everyone else holding a reference to it.

*/
