package replace

import (
	"context"
	"strings"

	"github.com/roelfdiedericks/rephrase/internal/failure"
	. "github.com/roelfdiedericks/rephrase/internal/logging"
)

// SurfaceKind identifies the editable surface holding the selection.
type SurfaceKind string

const (
	PlainControl              SurfaceKind = "plain_control"
	GenericEditableRegion     SurfaceKind = "generic_editable_region"
	SpecializedEditableRegion SurfaceKind = "specialized_editable_region"
)

// Surface is the classified editable surface. Exactly one of Control or
// Range is set. Built fresh for every attempt.
type Surface struct {
	Kind    SurfaceKind
	Control *ControlState
	Range   *RangeState
	Host    *HostSignature // SpecializedEditableRegion only
}

// Collapsed reports a surface that was found but has nothing selected.
func (s Surface) Collapsed() bool {
	switch {
	case s.Control != nil:
		return s.Control.Collapsed()
	case s.Range != nil:
		return s.Range.Collapsed
	}
	return true
}

// HostSignature marks a host application whose editor keeps its own model
// of the content and must be told about DOM edits.
type HostSignature struct {
	Name      string   `toml:"name" json:"name"`
	Hostnames []string `toml:"hostnames" json:"hostnames"` // "mail.google.com" or "*.example.com"
	Markers   []string `toml:"markers" json:"markers"`     // CSS selectors matched against the anchor's ancestors
}

// MatchesHost reports whether hostname matches one of the signature's
// hostnames, exactly or by "*." suffix.
func (h HostSignature) MatchesHost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	for _, pattern := range h.Hostnames {
		pattern = strings.ToLower(pattern)
		if pattern == hostname {
			return true
		}
		if suffix, ok := strings.CutPrefix(pattern, "*."); ok {
			if strings.HasSuffix(hostname, "."+suffix) {
				return true
			}
		}
	}
	return false
}

// DefaultHosts are the built-in rich compose editors known to need
// resynchronization events.
func DefaultHosts() []HostSignature {
	return []HostSignature{
		{
			Name:      "gmail",
			Hostnames: []string{"mail.google.com"},
			Markers:   []string{`div[g_editable="true"]`},
		},
		{
			Name:    "quill",
			Markers: []string{".ql-editor"},
		},
		{
			Name:    "prosemirror",
			Markers: []string{".ProseMirror"},
		},
		{
			Name:    "draftjs",
			Markers: []string{".public-DraftEditor-content"},
		},
		{
			Name:    "lexical",
			Markers: []string{`[data-lexical-editor="true"]`},
		},
	}
}

// Classifier maps the live document state to a Surface.
type Classifier struct {
	resolver *Resolver
	hosts    []HostSignature
	markers  []string
	owners   []int // markers[i] belongs to hosts[owners[i]]
}

// NewClassifier creates a classifier for the given host signatures.
func NewClassifier(resolver *Resolver, hosts []HostSignature) *Classifier {
	c := &Classifier{resolver: resolver, hosts: hosts}
	for i, h := range hosts {
		for _, m := range h.Markers {
			c.markers = append(c.markers, m)
			c.owners = append(c.owners, i)
		}
	}
	return c
}

// Classify inspects doc. A collapsed PlainControl is still returned as a
// surface and left to the dispatcher to report; every other failure is a
// *failure.Error.
func (c *Classifier) Classify(ctx context.Context, doc Document) (Surface, error) {
	ctrl, err := doc.ActiveControl(ctx)
	if err != nil {
		return Surface{}, failure.Wrap(failure.SurfaceNotFound, "read active element", err)
	}
	if ctrl != nil {
		return c.classifyControl(ctx, doc, ctrl)
	}
	return c.classifyRegion(ctx, doc)
}

func (c *Classifier) classifyControl(ctx context.Context, doc Document, ctrl *ControlState) (Surface, error) {
	if !c.resolver.Authoritative(ctx, doc) {
		L_warn("replace: focused control is not in the active frame, skipping", "frame", doc.Frame(), "tag", ctrl.Tag)
		return Surface{}, failure.New(failure.NotAuthoritativeFocus, "focused control is not in the active frame")
	}
	if !ctrl.HasOffsets {
		return Surface{}, failure.Newf(failure.SurfaceNotFound, "%s[type=%s] exposes no selection offsets", ctrl.Tag, ctrl.Type)
	}
	return Surface{Kind: PlainControl, Control: ctrl}, nil
}

func (c *Classifier) classifyRegion(ctx context.Context, doc Document) (Surface, error) {
	rs, err := doc.Selection(ctx)
	if err != nil {
		return Surface{}, failure.Wrap(failure.SurfaceNotFound, "read selection", err)
	}

	focused, _ := doc.HasFocus(ctx)
	if (!focused && !rs.AnchorInDocument) || rs.RangeCount == 0 {
		return Surface{}, failure.New(failure.SurfaceNotFound, "no focus or selection in this frame")
	}
	if rs.Collapsed {
		return Surface{}, failure.New(failure.NoActiveSelection, "selection is collapsed")
	}
	if !rs.Editable {
		return Surface{}, failure.New(failure.SurfaceNotFound, "selection is not inside an editable region")
	}

	s := Surface{Kind: GenericEditableRegion, Range: &rs}
	if host := c.matchHost(ctx, doc); host != nil {
		s.Kind = SpecializedEditableRegion
		s.Host = host
	}
	return s, nil
}

// matchHost checks hostnames first, then DOM markers. Marker lookup errors
// leave the surface generic.
func (c *Classifier) matchHost(ctx context.Context, doc Document) *HostSignature {
	if len(c.hosts) == 0 {
		return nil
	}
	if hostname, err := doc.Hostname(ctx); err == nil {
		for i := range c.hosts {
			if c.hosts[i].MatchesHost(hostname) {
				return &c.hosts[i]
			}
		}
	}
	if len(c.markers) == 0 {
		return nil
	}
	idx, err := doc.MatchMarker(ctx, c.markers)
	if err != nil {
		L_debug("replace: marker lookup failed", "frame", doc.Frame(), "error", err)
		return nil
	}
	if idx < 0 || idx >= len(c.owners) {
		return nil
	}
	return &c.hosts[c.owners[idx]]
}
