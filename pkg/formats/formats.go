// Package formats provides readers and writers for the file formats
// biomeforge exchanges with other tools: Wavefront OBJ meshes and
// Truevision TGA images.
package formats
