package images

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ResolutionType is the short name of a standard frame size used for synthetic benchmark grids.
type ResolutionType string

const (
	ResolutionTypeVGA      ResolutionType = "vga"
	ResolutionTypeNHD      ResolutionType = "nhd"
	ResolutionTypeHD720p   ResolutionType = "720p"
	ResolutionTypeFHD1080p ResolutionType = "1080p"
	ResolutionTypeQHD1440p ResolutionType = "1440p"
	ResolutionType4KUHD    ResolutionType = "4k"
	ResolutionType8KUHD    ResolutionType = "8k"
)

// Resolution describes a frame size by name.
type Resolution struct {
	Name   ResolutionType `json:"name"   yaml:"name"`
	Width  int            `json:"width"  yaml:"width"`
	Height int            `json:"height" yaml:"height"`
}

// GetMegaPixels returns the pixel count in millions, rounded to two decimals.
func (r Resolution) GetMegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	mp := float64(r.Width*r.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.GetMegaPixels())
}

var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeVGA:      {Name: ResolutionTypeVGA, Width: 640, Height: 480},
	ResolutionTypeNHD:      {Name: ResolutionTypeNHD, Width: 640, Height: 360},
	ResolutionTypeHD720p:   {Name: ResolutionTypeHD720p, Width: 1280, Height: 720},
	ResolutionTypeFHD1080p: {Name: ResolutionTypeFHD1080p, Width: 1920, Height: 1080},
	ResolutionTypeQHD1440p: {Name: ResolutionTypeQHD1440p, Width: 2560, Height: 1440},
	ResolutionType4KUHD:    {Name: ResolutionType4KUHD, Width: 3840, Height: 2160},
	ResolutionType8KUHD:    {Name: ResolutionType8KUHD, Width: 7680, Height: 4320},
}

// GetAllResolutions returns every known resolution ordered by pixel count.
func GetAllResolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Width*all[i].Height < all[j].Width*all[j].Height
	})
	return all
}

// GetResolutionByType retrieves a resolution by name, ignoring case.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[ResolutionType(strings.ToLower(string(t)))]
	return res, ok
}
