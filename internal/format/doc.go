// Package format turns raw device readings into the display strings used by
// every go-devinfo view: byte sizes, uptimes, clock frequencies, percentages
// and aligned label/value tables.
package format
