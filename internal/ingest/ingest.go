// ABOUTME: Passive ingestion pipeline scanning plain messages for profile links
// ABOUTME: Extracted UIDs are auto-saved to the record store per room

package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/ndhuy/uidkeeper/internal/store"
)

// DefaultDomains is the profile-link domain list used when the config
// names none.
var DefaultDomains = []string{"facebook.com"}

// Extractor resolves a profile link into a UID, reporting absence
// rather than errors.
type Extractor interface {
	ExtractUID(ctx context.Context, link string) (string, bool)
}

// Pipeline sweeps ordinary messages for profile links and stores any
// UIDs it can extract. It is stateless per message.
type Pipeline struct {
	store     store.Store
	extractor Extractor
	linkRe    *regexp.Regexp
	logger    *slog.Logger
}

// New creates a pipeline that recognizes links on the given domains.
// An empty domain list falls back to DefaultDomains.
func New(s store.Store, extractor Extractor, domains []string) *Pipeline {
	if len(domains) == 0 {
		domains = DefaultDomains
	}

	quoted := make([]string, len(domains))
	for i, d := range domains {
		quoted[i] = regexp.QuoteMeta(d)
	}
	linkRe := regexp.MustCompile(`https?://(?:www\.)?(?:` + strings.Join(quoted, "|") + `)/[^\s]+`)

	return &Pipeline{
		store:     s,
		extractor: extractor,
		linkRe:    linkRe,
		logger:    slog.Default().With("component", "ingest"),
	}
}

// FindLinks returns all recognized profile links in the text, in order
// of appearance.
func (p *Pipeline) FindLinks(text string) []string {
	return p.linkRe.FindAllString(text, -1)
}

// Process scans a plain message and auto-saves every UID extracted from
// its links. It returns the saved UIDs in link order; an empty result
// means the message warrants no reply. Extraction failures skip the
// link; a storage failure aborts and propagates.
func (p *Pipeline) Process(ctx context.Context, chatID, text string) ([]string, error) {
	links := p.FindLinks(text)
	if len(links) == 0 {
		return nil, nil
	}

	var saved []string
	for _, link := range links {
		uid, ok := p.extractor.ExtractUID(ctx, link)
		if !ok {
			p.logger.Debug("no uid extracted", "link", link)
			continue
		}

		note := "Auto from " + link
		if _, err := p.store.SaveRecord(ctx, chatID, uid, note); err != nil {
			return saved, fmt.Errorf("auto-saving uid %s: %w", uid, err)
		}
		saved = append(saved, uid)
	}

	if len(saved) > 0 {
		p.logger.Info("auto-saved uids", "chat", chatID, "count", len(saved))
	}
	return saved, nil
}
