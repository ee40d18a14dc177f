//go:build !gocv

package imageprocessor

// registerPlatformLoaders is a no-op without the gocv build tag
func registerPlatformLoaders(*ImageLoaderRegistry) {}
