// Package imageprocessor decodes image files through a registry of format loaders,
// hashes file content and measures how uniform the left and right edges of an image are.
package imageprocessor
