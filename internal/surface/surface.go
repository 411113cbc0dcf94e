// Package surface provides the raster surfaces chunks are painted into and
// the layer that hosts them.
package surface

import (
	"errors"
	"fmt"
	"image"
	"sync"
)

var (
	// ErrAlreadyTransferred is returned when control of a surface has
	// already been handed to a background context.
	ErrAlreadyTransferred = errors.New("surface: control already transferred")
	// ErrTransferUnsupported is returned when the host cannot hand
	// surfaces to a background context.
	ErrTransferUnsupported = errors.New("surface: offscreen transfer not supported")
	// ErrReleased is returned for operations on a released surface.
	ErrReleased = errors.New("surface: released")
)

// Surface is one chunk's raster. Width and Height are in layout pixels;
// the backing image is Scale times larger in each dimension.
type Surface struct {
	Index  int
	Left   int
	Width  int
	Height int
	Scale  int

	mu          sync.Mutex
	img         *image.RGBA
	offscreen   *Offscreen
	attached    bool
	transferred bool
	released    bool
	transferOK  bool
}

// New allocates a surface for chunk index placed at left.
func New(index, left, width, height, scale int) *Surface {
	if scale < 1 {
		scale = 1
	}
	return &Surface{
		Index:  index,
		Left:   left,
		Width:  width,
		Height: height,
		Scale:  scale,
		img:    image.NewRGBA(image.Rect(0, 0, width*scale, height*scale)),
	}
}

func (s *Surface) String() string {
	return fmt.Sprintf("surface[%d @%d %dx%d]", s.Index, s.Left, s.Width, s.Height)
}

// Image returns the backing raster for local drawing. It is nil once the
// surface has been transferred or released.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transferred || s.released {
		return nil
	}
	return s.img
}

// Attached reports whether the surface is currently hosted by a layer.
func (s *Surface) Attached() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attached
}

// Transferred reports whether control has moved to a background context.
func (s *Surface) Transferred() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transferred
}

// Released reports whether the surface memory has been freed.
func (s *Surface) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

// TransferControl hands the raster to a background context. It can succeed
// at most once per surface; the surface can no longer be drawn locally.
func (s *Surface) TransferControl() (*Offscreen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.released:
		return nil, ErrReleased
	case s.transferred:
		return nil, ErrAlreadyTransferred
	case !s.transferOK:
		return nil, ErrTransferUnsupported
	}
	s.transferred = true
	s.offscreen = &Offscreen{img: s.img}
	return s.offscreen, nil
}

// Release drops the raster so its memory can be reclaimed.
func (s *Surface) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
	s.img = nil
	if s.offscreen != nil {
		s.offscreen.detach()
		s.offscreen = nil
	}
}

// Snapshot returns the pixels currently visible for this surface; for a
// transferred surface it is a copy of the offscreen raster.
func (s *Surface) Snapshot() *image.RGBA {
	s.mu.Lock()
	img, off := s.img, s.offscreen
	released := s.released
	s.mu.Unlock()
	if released {
		return nil
	}
	if off != nil {
		return off.copyImage()
	}
	return img
}

func (s *Surface) setAttached(v bool) {
	s.mu.Lock()
	s.attached = v
	s.mu.Unlock()
}

func (s *Surface) setTransferable(v bool) {
	s.mu.Lock()
	s.transferOK = v
	s.mu.Unlock()
}

// Offscreen is a raster owned by a background drawing context.
type Offscreen struct {
	mu   sync.Mutex
	img  *image.RGBA
	gone bool
}

// Draw runs fn with exclusive access to the raster. It returns ErrReleased
// if the owning surface has been released meanwhile.
func (o *Offscreen) Draw(fn func(img *image.RGBA)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.gone {
		return ErrReleased
	}
	fn(o.img)
	return nil
}

// Bounds returns the raster bounds.
func (o *Offscreen) Bounds() image.Rectangle {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.img == nil {
		return image.Rectangle{}
	}
	return o.img.Bounds()
}

func (o *Offscreen) detach() {
	o.mu.Lock()
	o.gone = true
	o.img = nil
	o.mu.Unlock()
}

func (o *Offscreen) copyImage() *image.RGBA {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.img == nil {
		return nil
	}
	cp := image.NewRGBA(o.img.Rect)
	copy(cp.Pix, o.img.Pix)
	return cp
}
