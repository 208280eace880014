package persona

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/adrg/frontmatter"

	"personamcp/internal/logging"
	"personamcp/internal/source"
	"personamcp/internal/worldbook"
)

// Placeholders substituted in persona templates.
const (
	UserPlaceholder = "{{user}}"
	CharPlaceholder = "{{char}}"
)

// Section headings used by LayoutLabeled.
const (
	safetyHeading  = "【安全规则】"
	personaHeading = "【角色人设】"
)

// Frontmatter is the optional YAML header of a persona Markdown file.
type Frontmatter struct {
	Name        string `yaml:"name"`
	Char        string `yaml:"char"`
	Description string `yaml:"description"`
}

// Profile is a parsed persona file.
type Profile struct {
	Frontmatter
	// Body is the template with the frontmatter removed.
	Body string
}

// ReplacePlaceholders substitutes every literal {{user}} and then every
// literal {{char}} in text.
func ReplacePlaceholders(text, user, char string) string {
	text = strings.ReplaceAll(text, UserPlaceholder, user)
	return strings.ReplaceAll(text, CharPlaceholder, char)
}

// ParseProfile splits a persona file into frontmatter and body. Files
// without frontmatter yield an empty Frontmatter and the whole file as body.
func ParseProfile(data []byte) (Profile, error) {
	var p Profile
	body, err := frontmatter.Parse(bytes.NewReader(data), &p.Frontmatter)
	if err != nil {
		return Profile{}, fmt.Errorf("parsing persona frontmatter: %w", err)
	}
	p.Body = string(body)
	return p, nil
}

// Persona serves the documents of one configured bundle. Persona and
// safety files are read on every call; the worldbook follows the bundle's
// cache setting.
type Persona struct {
	bundle  Bundle
	layout  Layout
	persona source.Locator
	safety  source.Locator
	engine  *worldbook.Engine
	logger  *logging.AppLogger

	mu   sync.RWMutex
	meta Frontmatter
}

// Option configures a Persona.
type Option func(*options)

type options struct {
	logger   *logging.AppLogger
	observer worldbook.LoadObserver
}

// WithLogger sets the logger for the persona and its worldbook store.
func WithLogger(logger *logging.AppLogger) Option {
	return func(o *options) { o.logger = logger }
}

// WithLoadObserver is passed through to the worldbook store.
func WithLoadObserver(fn worldbook.LoadObserver) Option {
	return func(o *options) { o.observer = fn }
}

// New builds a Persona from b with files resolved under root.
func New(root string, b Bundle, opts ...Option) (*Persona, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: logging.GetDefault()}
	for _, opt := range opts {
		opt(&o)
	}

	layout, _ := ParseLayout(b.Layout)
	policy, _ := worldbook.ParsePolicy(b.SearchPolicy)

	p := &Persona{
		bundle:  b,
		layout:  layout,
		persona: source.NewFileLocator(root, b.Persona),
		logger:  o.logger.With("persona", b.ID),
	}
	if b.Safety != "" {
		p.safety = source.NewFileLocator(root, b.Safety)
	}
	if b.Worldbook != "" {
		store := worldbook.NewStore(
			source.NewFileLocator(root, b.Worldbook),
			worldbook.WithCache(b.Cache),
			worldbook.WithLogger(p.logger),
			worldbook.WithLoadObserver(o.observer),
		)
		p.engine = worldbook.NewEngine(store,
			worldbook.WithPolicy(policy),
			worldbook.WithDetailedSummaries(b.DetailedSummaries),
		)
	}

	return p, nil
}

// ID returns the persona identifier.
func (p *Persona) ID() string { return p.bundle.ID }

// Bundle returns the configuration the persona was built from.
func (p *Persona) Bundle() Bundle { return p.bundle }

// Layout returns the system prompt layout.
func (p *Persona) Layout() Layout { return p.layout }

// Name returns the display name. Frontmatter seen by Refresh takes
// precedence over the configured name.
func (p *Persona) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.meta.Name != "" {
		return p.meta.Name
	}
	return p.bundle.DisplayName()
}

// Description returns the frontmatter description seen by Refresh, if any.
func (p *Persona) Description() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meta.Description
}

// Worldbook returns the persona's query engine, or nil when no worldbook is
// configured.
func (p *Persona) Worldbook() *worldbook.Engine { return p.engine }

// Template returns the persona Markdown file exactly as stored.
func (p *Persona) Template(ctx context.Context) (string, error) {
	data, err := source.ReadAll(ctx, p.persona)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Profile reads and parses the persona file.
func (p *Persona) Profile(ctx context.Context) (Profile, error) {
	data, err := source.ReadAll(ctx, p.persona)
	if err != nil {
		return Profile{}, err
	}
	return ParseProfile(data)
}

// Refresh re-reads the persona frontmatter used by Name and Description.
func (p *Persona) Refresh(ctx context.Context) error {
	profile, err := p.Profile(ctx)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.meta = profile.Frontmatter
	p.mu.Unlock()
	return nil
}

// Safety returns the safety guidelines text.
func (p *Persona) Safety(ctx context.Context) (string, error) {
	if p.safety == nil {
		return "", fmt.Errorf("%w: no safety guidelines configured for %s", source.ErrUnavailable, p.ID())
	}
	data, err := source.ReadAll(ctx, p.safety)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Defaults returns the user and char values used when a caller leaves
// them empty. Unset values keep the placeholder.
func (p *Persona) Defaults(profile Profile) (user, char string) {
	user = p.bundle.DefaultUser
	if user == "" {
		user = UserPlaceholder
	}

	switch {
	case profile.Char != "":
		char = profile.Char
	case p.bundle.DefaultChar != "":
		char = p.bundle.DefaultChar
	default:
		char = CharPlaceholder
	}
	return user, char
}

// SystemPrompt composes safety guidelines and the persona template with
// placeholders replaced. Empty user or char fall back to Defaults.
func (p *Persona) SystemPrompt(ctx context.Context, user, char string) (string, error) {
	profile, err := p.Profile(ctx)
	if err != nil {
		return "", err
	}

	defUser, defChar := p.Defaults(profile)
	if user == "" {
		user = defUser
	}
	if char == "" {
		char = defChar
	}
	body := ReplacePlaceholders(profile.Body, user, char)

	safety, err := p.Safety(ctx)
	switch p.layout {
	case LayoutPlain:
		if err != nil {
			return "", err
		}
		return strings.Join([]string{strings.TrimSpace(safety), "", strings.TrimSpace(body)}, "\n\n"), nil

	default:
		if err != nil {
			if !errors.Is(err, source.ErrUnavailable) {
				return "", err
			}
			p.logger.Debug("Safety guidelines unavailable, continuing without", "error", err)
			safety = ""
		}
		return safetyHeading + "\n" + safety + "\n\n" + personaHeading + "\n" + body, nil
	}
}
