// Package avatar defines the avatar parameters, the built-in shape table and
// the archive record that ties a published avatar to the parameters that
// produced it.
package avatar

import (
	"time"

	"github.com/nornoe/skyavatar/pkg/errors"
	"github.com/nornoe/skyavatar/pkg/render/overlay"
)

// Canvas geometry shared by the renderer and the overlay rasterizer.
const (
	Size   = 512
	Center = Size / 2
)

// Supported background colors.
const (
	BackgroundBlack = "#000"
	BackgroundLight = "#ccc"
)

// Backgrounds lists the supported backgrounds.
var Backgrounds = []string{BackgroundBlack, BackgroundLight}

// Params fully determines a rendered avatar, given the overlay asset bytes.
type Params struct {
	Background string  `json:"background" bson:"background"`
	Shape      string  `json:"shape" bson:"shape"`
	Eyes       string  `json:"eyes" bson:"eyes"`
	Mouth      string  `json:"mouth" bson:"mouth"`
	Color      string  `json:"color" bson:"color"`
	Rotation   float64 `json:"rotation" bson:"rotation"`
}

// AssetChecker reports whether an overlay asset exists.
// *overlay.Store implements it.
type AssetChecker interface {
	Has(kind overlay.Kind, name string) bool
}

// Validate checks every field. Checks run in field order and the first
// failure is returned, so the error names one concrete problem. assets may be
// nil to skip the overlay existence checks.
func (p Params) Validate(assets AssetChecker) error {
	if !validBackground(p.Background) {
		return errors.New(errors.ErrCodeInvalidBackground,
			"invalid background %q (must be %s or %s)", p.Background, BackgroundBlack, BackgroundLight)
	}
	if err := errors.ValidateKey(errors.ErrCodeInvalidShape, "shape", p.Shape); err != nil {
		return err
	}
	if _, ok := shapes[p.Shape]; !ok {
		return errors.New(errors.ErrCodeInvalidShape, "unknown shape %q", p.Shape)
	}
	if err := validateAsset(assets, overlay.Eyes, p.Eyes); err != nil {
		return err
	}
	if err := validateAsset(assets, overlay.Mouth, p.Mouth); err != nil {
		return err
	}
	if err := errors.ValidateColor(p.Color); err != nil {
		return err
	}
	return errors.ValidateRotation(p.Rotation)
}

func validBackground(bg string) bool {
	for _, b := range Backgrounds {
		if bg == b {
			return true
		}
	}
	return false
}

func validateAsset(assets AssetChecker, kind overlay.Kind, name string) error {
	if err := errors.ValidateKey(errors.ErrCodeInvalidAsset, string(kind), name); err != nil {
		return err
	}
	if assets != nil && !assets.Has(kind, name) {
		return errors.New(errors.ErrCodeInvalidAsset, "unknown %s %q", kind, name)
	}
	return nil
}

// BlobRef references an uploaded blob.
type BlobRef struct {
	Type     string `json:"$type"`
	Link     string `json:"link"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// ArchiveRecord is one published avatar as listed by the archive.
type ArchiveRecord struct {
	URI       string    `json:"uri"`
	CID       string    `json:"cid"`
	CreatedAt time.Time `json:"createdAt"`
	BlobRef   BlobRef   `json:"blobRef"`
	Meta      Params    `json:"meta"`
}
