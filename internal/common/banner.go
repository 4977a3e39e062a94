// Package common provides shared configuration, logging and version utilities.
package common

import (
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application banner
func PrintBanner(version string) {
	banner.PrintSimple("Folio", version)
}
