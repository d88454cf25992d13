package geetools

// This package defines common methods and operations for managing assets stored in a remote geospatial asset catalog. Common operations include: Recursively removing asset trees, creating folders and image collections, exporting image collections to other collections or to buckets and uploading images in to collections.
