// Package process cleans up browser processes left by document rendering.
package process
