package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/idcard-tools/internal/detection"
	"github.com/ironsheep/idcard-tools/internal/fields"
	imgutil "github.com/ironsheep/idcard-tools/internal/imaging"
)

// Style holds the colours used for text regions. A nil Fill leaves the
// template's box visible behind the text; a zero BorderWidth draws no
// border.
type Style struct {
	Fill        color.Color
	Text        color.Color
	Border      color.Color
	BorderWidth int
}

// DefaultStyle is black text on a white box with no border.
func DefaultStyle() Style {
	return Style{
		Fill:   color.White,
		Text:   color.Black,
		Border: color.Black,
	}
}

// Labels are the captions prefixed to number fields and the role texts.
type Labels struct {
	Staff      string `yaml:"staff" json:"staff"`
	Credential string `yaml:"credential" json:"credential"`
	RoleTrue   string `yaml:"role_true" json:"role_true"`
	RoleFalse  string `yaml:"role_false" json:"role_false"`
}

// DefaultLabels returns the captions of the stock staff card.
func DefaultLabels() Labels {
	return Labels{
		Staff:      "Staff Number",
		Credential: "DBS Number",
		RoleTrue:   "Teaching Staff",
		RoleFalse:  "Support Staff",
	}
}

// Content is the per-person data a card is rendered from.
type Content struct {
	FirstName        string
	LastName         string
	StaffNumber      string
	CredentialNumber string
	TeachingStaff    bool
	Photo            image.Image
}

// Options configures a Renderer.
type Options struct {
	Font   *Font
	Style  Style
	Labels Labels

	// QRLevel is the error recovery level of QR code regions.
	QRLevel qrcode.RecoveryLevel
}

// Renderer draws content into regions. It holds no per-call state and is
// safe for concurrent use on distinct canvases.
type Renderer struct {
	opts Options
}

// New creates a renderer. A nil font loads goregular at DefaultFontSize.
func New(opts Options) (*Renderer, error) {
	if opts.Font == nil {
		f, err := LoadFont(FontGoRegular, DefaultFontSize)
		if err != nil {
			return nil, err
		}
		opts.Font = f
	}
	if opts.Style.Text == nil {
		opts.Style.Text = color.Black
	}
	if opts.Style.BorderWidth < 0 {
		return nil, fmt.Errorf("border width must not be negative, got %d", opts.Style.BorderWidth)
	}
	if opts.Style.BorderWidth > 0 && opts.Style.Border == nil {
		opts.Style.Border = color.Black
	}
	return &Renderer{opts: opts}, nil
}

// Text returns the string rendered for a text or QR code kind, and false
// for kinds that are not drawn as text.
func (r *Renderer) Text(kind fields.Kind, c Content) (string, bool) {
	l := r.opts.Labels
	switch kind {
	case fields.Name:
		return strings.TrimSpace(c.FirstName + " " + c.LastName), true
	case fields.StaffNumber:
		return labelled(l.Staff, c.StaffNumber), true
	case fields.CredentialNumber:
		return labelled(l.Credential, c.CredentialNumber), true
	case fields.RoleLabel:
		if c.TeachingStaff {
			return l.RoleTrue, true
		}
		return l.RoleFalse, true
	case fields.QRCode:
		return strings.Join([]string{
			strings.TrimSpace(c.FirstName + " " + c.LastName),
			labelled(l.Staff, c.StaffNumber),
			labelled(l.Credential, c.CredentialNumber),
		}, "\n"), true
	}
	return "", false
}

func labelled(label, value string) string {
	if label == "" {
		return value
	}
	return label + ": " + value
}

// Render draws the content for kind into region on canvas. Unknown regions
// are left untouched.
func (r *Renderer) Render(canvas draw.Image, region detection.Region, kind fields.Kind, c Content) error {
	rect := region.Rect()
	switch {
	case kind == fields.Unknown:
		return nil
	case kind == fields.Photo:
		return r.drawPhoto(canvas, rect, c.Photo)
	case kind == fields.QRCode:
		payload, _ := r.Text(kind, c)
		return r.drawQRCode(canvas, rect, payload)
	case kind.IsText():
		text, _ := r.Text(kind, c)
		r.drawBox(canvas, rect)
		return r.drawText(canvas, rect, text)
	}
	return fmt.Errorf("unsupported field kind %v", kind)
}

// drawPhoto scales photo to exactly the region size and replaces the
// region's pixels with it.
func (r *Renderer) drawPhoto(canvas draw.Image, rect image.Rectangle, photo image.Image) error {
	if photo == nil {
		return errors.New("no photo to draw")
	}
	scaled, err := imgutil.Resize(photo, rect.Dx(), rect.Dy())
	if err != nil {
		return fmt.Errorf("failed to resize photo: %w", err)
	}
	draw.Draw(canvas, rect, scaled, image.Point{}, draw.Src)
	return nil
}

// drawBox fills the region and strokes its border inside the region.
func (r *Renderer) drawBox(canvas draw.Image, rect image.Rectangle) {
	s := r.opts.Style
	if s.Fill != nil {
		draw.Draw(canvas, rect, image.NewUniform(s.Fill), image.Point{}, draw.Src)
	}
	bw := min(s.BorderWidth, rect.Dx()/2, rect.Dy()/2)
	if bw <= 0 {
		return
	}
	border := image.NewUniform(s.Border)
	for _, band := range []image.Rectangle{
		image.Rect(rect.Min.X, rect.Min.Y, rect.Max.X, rect.Min.Y+bw),
		image.Rect(rect.Min.X, rect.Max.Y-bw, rect.Max.X, rect.Max.Y),
		image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+bw, rect.Max.Y),
		image.Rect(rect.Max.X-bw, rect.Min.Y, rect.Max.X, rect.Max.Y),
	} {
		draw.Draw(canvas, band, border, image.Point{}, draw.Src)
	}
}

// drawText rasterizes text into an alpha mask and composites it so that
// the mask's inked pixels are centred in rect. Ink outside rect is
// clipped.
func (r *Renderer) drawText(canvas draw.Image, rect image.Rectangle, text string) error {
	mask, err := r.rasterize(text)
	if err != nil {
		return err
	}
	if mask == nil {
		return nil
	}
	ink := inkBounds(mask)
	if ink.Empty() {
		return nil
	}

	offset := image.Pt(
		rect.Min.X+(rect.Dx()-ink.Dx())/2-ink.Min.X,
		rect.Min.Y+(rect.Dy()-ink.Dy())/2-ink.Min.Y,
	)
	dst := mask.Bounds().Add(offset).Intersect(rect)
	if dst.Empty() {
		return nil
	}
	draw.DrawMask(canvas, dst, image.NewUniform(r.opts.Style.Text), image.Point{}, mask, dst.Min.Sub(offset), draw.Over)
	return nil
}

// rasterize draws text into a tightly sized alpha mask. It returns nil
// when the text has no extent.
func (r *Renderer) rasterize(text string) (*image.Alpha, error) {
	face, err := r.opts.Font.NewFace()
	if err != nil {
		return nil, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	bounds, _ := font.BoundString(face, text)
	minX, minY := bounds.Min.X.Floor(), bounds.Min.Y.Floor()
	maxX, maxY := bounds.Max.X.Ceil(), bounds.Max.Y.Ceil()
	if maxX <= minX || maxY <= minY {
		return nil, nil
	}

	mask := image.NewAlpha(image.Rect(0, 0, maxX-minX, maxY-minY))
	d := &font.Drawer{
		Dst:  mask,
		Src:  image.Opaque,
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(-minX), Y: fixed.I(-minY)},
	}
	d.DrawString(text)
	return mask, nil
}

// inkBounds returns the bounding box of the non-transparent pixels of mask.
func inkBounds(mask *image.Alpha) image.Rectangle {
	b := mask.Bounds()
	ink := image.Rectangle{}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := mask.Pix[mask.PixOffset(b.Min.X, y):mask.PixOffset(b.Max.X, y)]
		for i, a := range row {
			if a == 0 {
				continue
			}
			px := image.Rect(b.Min.X+i, y, b.Min.X+i+1, y+1)
			ink = ink.Union(px)
		}
	}
	return ink
}

// drawQRCode fills the region with the code's background and centres the
// largest square code that fits.
func (r *Renderer) drawQRCode(canvas draw.Image, rect image.Rectangle, payload string) error {
	side := min(rect.Dx(), rect.Dy())
	if side <= 0 {
		return fmt.Errorf("region %v too small for a QR code", rect)
	}

	q, err := qrcode.New(payload, r.opts.QRLevel)
	if err != nil {
		return fmt.Errorf("failed to encode QR code: %w", err)
	}
	q.ForegroundColor = r.opts.Style.Text
	if r.opts.Style.Fill != nil {
		q.BackgroundColor = r.opts.Style.Fill
	}

	code := q.Image(side)
	if code.Bounds().Dx() != side || code.Bounds().Dy() != side {
		// More modules than pixels: shrink it. Small codes may not scan.
		code = imaging.Resize(code, side, side, imaging.NearestNeighbor)
	}

	draw.Draw(canvas, rect, image.NewUniform(q.BackgroundColor), image.Point{}, draw.Src)
	origin := image.Pt(rect.Min.X+(rect.Dx()-side)/2, rect.Min.Y+(rect.Dy()-side)/2)
	draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(side, side))}, code, code.Bounds().Min, draw.Src)
	return nil
}
