package images

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// AspectRatio represents a sensor aspect ratio by name (e.g., "4:3").
type AspectRatio string

// Aspect ratios of common still cameras.
const (
	AspectRatio43  AspectRatio = "4:3"
	AspectRatio32  AspectRatio = "3:2"
	AspectRatio169 AspectRatio = "16:9"
)

// ResolutionType names a photo resolution preset.
type ResolutionType string

// Photo resolution presets, from webcam stills to phone main cameras.
const (
	ResolutionTypeVGA     ResolutionType = "VGA"
	ResolutionTypeHD720p  ResolutionType = "HD 720p"
	ResolutionType2MP     ResolutionType = "2MP (4:3)"
	ResolutionTypeFHD     ResolutionType = "Full HD 1080p"
	ResolutionType5MP     ResolutionType = "5MP (4:3)"
	ResolutionType8MP     ResolutionType = "8MP (4:3)"
	ResolutionType4KUHD   ResolutionType = "4K UHD"
	ResolutionType12MP    ResolutionType = "12MP (4:3)"
	ResolutionType24MP    ResolutionType = "24MP (3:2)"
)

// ResolutionPixels describes the exact dimensions of a resolution.
type ResolutionPixels struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// Resolution is a named photo size.
type Resolution struct {
	Name        ResolutionType   `json:"name" yaml:"name"`
	AspectRatio AspectRatio      `json:"aspectRatio" yaml:"aspectRatio"`
	Pixels      ResolutionPixels `json:"pixels" yaml:"pixels"`
}

// GetMegaPixels returns the pixel count in millions, rounded to two decimals (e.g. 2.07
// for 1080p). Non-positive dimensions give 0.
func (r Resolution) GetMegaPixels() float64 {
	if r.Pixels.Width <= 0 || r.Pixels.Height <= 0 {
		return 0.0
	}
	mp := float64(r.Pixels.Width*r.Pixels.Height) / 1_000_000.0
	return math.Round(mp*100) / 100
}

// Size returns the dimensions as an image.Point.
func (r Resolution) Size() image.Point {
	return image.Pt(r.Pixels.Width, r.Pixels.Height)
}

// String returns a human-readable summary of the resolution.
func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Pixels.Width, r.Pixels.Height, r.GetMegaPixels())
}

var resolutions = map[ResolutionType]Resolution{
	ResolutionTypeVGA: {
		Name:        ResolutionTypeVGA,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 640, Height: 480},
	},
	ResolutionTypeHD720p: {
		Name:        ResolutionTypeHD720p,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 1280, Height: 720},
	},
	ResolutionType2MP: {
		Name:        ResolutionType2MP,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 1600, Height: 1200},
	},
	ResolutionTypeFHD: {
		Name:        ResolutionTypeFHD,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 1920, Height: 1080},
	},
	ResolutionType5MP: {
		Name:        ResolutionType5MP,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 2592, Height: 1944},
	},
	ResolutionType8MP: {
		Name:        ResolutionType8MP,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 3264, Height: 2448},
	},
	ResolutionType4KUHD: {
		Name:        ResolutionType4KUHD,
		AspectRatio: AspectRatio169,
		Pixels:      ResolutionPixels{Width: 3840, Height: 2160},
	},
	ResolutionType12MP: {
		Name:        ResolutionType12MP,
		AspectRatio: AspectRatio43,
		Pixels:      ResolutionPixels{Width: 4000, Height: 3000},
	},
	ResolutionType24MP: {
		Name:        ResolutionType24MP,
		AspectRatio: AspectRatio32,
		Pixels:      ResolutionPixels{Width: 6000, Height: 4000},
	},
}

// GetAllResolutions returns every preset, smallest first.
func GetAllResolutions() []Resolution {
	all := make([]Resolution, 0, len(resolutions))
	for _, res := range resolutions {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].Pixels.Width*all[i].Pixels.Height < all[j].Pixels.Width*all[j].Pixels.Height
	})
	return all
}

// GetResolutionByType retrieves a specific resolution by its type.
func GetResolutionByType(t ResolutionType) (Resolution, bool) {
	res, ok := resolutions[t]
	return res, ok
}

// GetHighestResolutionUnderDimensions retrieves the largest preset fitting within width x
// height.
//
// Arguments:
//   - width: The maximum possible width of the image.
//   - height: The maximum possible height of the image.
//
// Returns:
//   - Resolution: The largest preset that fits.
//   - bool: True if a resolution was found, otherwise false.
func GetHighestResolutionUnderDimensions(width, height int) (Resolution, bool) {
	var highest Resolution
	var found bool

	for _, res := range resolutions {
		if res.Pixels.Width <= width && res.Pixels.Height <= height {
			if !found || res.GetMegaPixels() > highest.GetMegaPixels() {
				highest = res
				found = true
			}
		}
	}
	return highest, found
}
