package dreams

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/dream-journal-backend/internal/services"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const maxTitleLength = 200

var (
	ErrTitleRequired        = errors.New("title is required")
	ErrContentRequired      = errors.New("content is required")
	ErrInvalidMood          = errors.New("invalid mood")
	ErrTitleTooLong         = fmt.Errorf("title must be at most %d characters", maxTitleLength)
	ErrContentInappropriate = errors.New("content contains inappropriate language")
	ErrInvalidMonth         = errors.New("month must use the YYYY-MM format")
)

// IsValidationError reports whether err was caused by bad client input.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrTitleRequired) ||
		errors.Is(err, ErrContentRequired) ||
		errors.Is(err, ErrInvalidMood) ||
		errors.Is(err, ErrTitleTooLong) ||
		errors.Is(err, ErrContentInappropriate) ||
		errors.Is(err, ErrInvalidMonth) ||
		errors.Is(err, services.ErrImagePromptRequired)
}

// Interpreter produces AI readings of a dream.
type Interpreter interface {
	Interpret(ctx context.Context, title, content, mood string) (string, error)
	Recommend(ctx context.Context, title, content, mood string) ([]string, error)
}

// Illustrator renders a dream into a stored image and returns its reference.
type Illustrator interface {
	Illustrate(ctx context.Context, title, content string) (string, error)
}

// Transcriber turns recorded speech into text. An empty language selects
// the transcriber's default.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, language string) (string, error)
}

// Collaborators are the optional external services. A nil collaborator makes
// the matching operation report the service as unavailable.
type Collaborators struct {
	Interpreter Interpreter
	Illustrator Illustrator
	Transcriber Transcriber
}

// ContentFilter flags text containing any blocked word, case-insensitively.
type ContentFilter struct {
	blockedWords []string
}

func NewContentFilter(blockedWords []string) *ContentFilter {
	words := make([]string, 0, len(blockedWords))
	for _, w := range blockedWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			words = append(words, w)
		}
	}
	return &ContentFilter{blockedWords: words}
}

func (f *ContentFilter) Flagged(texts ...string) bool {
	if f == nil || len(f.blockedWords) == 0 {
		return false
	}
	for _, text := range texts {
		lower := strings.ToLower(text)
		for _, word := range f.blockedWords {
			if strings.Contains(lower, word) {
				return true
			}
		}
	}
	return false
}

type DreamService struct {
	repo          Repository
	collab        Collaborators
	contentFilter *ContentFilter
	loc           *time.Location
	now           func() time.Time
}

func NewDreamService(repo Repository, collab Collaborators, filter *ContentFilter, loc *time.Location) *DreamService {
	if loc == nil {
		loc = time.UTC
	}
	return &DreamService{
		repo:          repo,
		collab:        collab,
		contentFilter: filter,
		loc:           loc,
		now:           time.Now,
	}
}

func (s *DreamService) clock() time.Time {
	return s.now().In(s.loc)
}

func (s *DreamService) CreateDream(ctx context.Context, userID uuid.UUID, req CreateDreamRequest) (*Dream, error) {
	dream := Dream{
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
		Mood:    req.Mood,
		Image:   req.Image,
		IsLucid: req.IsLucid,
	}
	if req.Date != nil {
		dream.Date = *req.Date
	}
	if err := s.normalize(&dream); err != nil {
		return nil, err
	}
	if req.IsNightmare != nil {
		dream.IsNightmare = *req.IsNightmare
	} else {
		dream.IsNightmare = dream.Mood == MoodAnxious
	}
	dream.ID = ulid.Make().String()

	if err := s.repo.Create(ctx, &dream); err != nil {
		return nil, fmt.Errorf("create dream: %w", err)
	}
	return &dream, nil
}

// normalize trims and validates the user-editable fields in place, filling
// defaults for mood and date.
func (s *DreamService) normalize(d *Dream) error {
	d.Title = strings.TrimSpace(d.Title)
	d.Content = strings.TrimSpace(d.Content)
	if d.Title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(d.Title) > maxTitleLength {
		return ErrTitleTooLong
	}
	if d.Content == "" {
		return ErrContentRequired
	}
	if d.Mood == "" {
		d.Mood = MoodNeutral
	}
	if !d.Mood.Valid() {
		return ErrInvalidMood
	}
	d.Tags = normalizeTags(d.Tags)
	if s.contentFilter.Flagged(append([]string{d.Title, d.Content}, d.Tags...)...) {
		return ErrContentInappropriate
	}
	if d.Image != nil {
		if ref := strings.TrimSpace(*d.Image); ref != "" {
			d.Image = &ref
		} else {
			d.Image = nil
		}
	}
	if d.Date.IsZero() {
		d.Date = s.clock()
	}
	d.Date = d.Date.UTC()
	return nil
}

// normalizeTags trims tags and drops empties and repeats, keeping entry order.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ListDreams returns the collection newest first, narrowed by a
// case-insensitive query over title, content and tags and by a YYYY-MM month.
func (s *DreamService) ListDreams(ctx context.Context, userID uuid.UUID, filter ListFilter) (*DreamListResponse, error) {
	month := strings.TrimSpace(filter.Month)
	if month != "" {
		if _, err := time.ParseInLocation("2006-01", month, s.loc); err != nil {
			return nil, ErrInvalidMonth
		}
	}
	query := strings.TrimSpace(filter.Query)
	needle := strings.ToLower(query)

	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list dreams: %w", err)
	}

	dreams := make([]Dream, 0, len(all))
	for _, d := range all {
		if month != "" && s.monthKey(d) != month {
			continue
		}
		if needle != "" && !matches(d, needle) {
			continue
		}
		dreams = append(dreams, d)
	}

	return &DreamListResponse{
		Dreams: dreams,
		Total:  len(dreams),
		Query:  query,
		Month:  month,
	}, nil
}

func matches(d Dream, needle string) bool {
	if strings.Contains(strings.ToLower(d.Title), needle) ||
		strings.Contains(strings.ToLower(d.Content), needle) {
		return true
	}
	for _, tag := range d.Tags {
		if strings.Contains(strings.ToLower(tag), needle) {
			return true
		}
	}
	return false
}

func (s *DreamService) monthKey(d Dream) string {
	return d.Date.In(s.loc).Format("2006-01")
}

// ListMonths groups the collection by calendar month, newest month first.
func (s *DreamService) ListMonths(ctx context.Context, userID uuid.UUID) ([]MonthGroup, error) {
	all, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list dreams: %w", err)
	}

	counts := make(map[string]int)
	for _, d := range all {
		counts[s.monthKey(d)]++
	}
	groups := make([]MonthGroup, 0, len(counts))
	for month, n := range counts {
		groups = append(groups, MonthGroup{Month: month, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Month > groups[j].Month
	})
	return groups, nil
}

func (s *DreamService) GetDream(ctx context.Context, userID uuid.UUID, id string) (*Dream, error) {
	return s.repo.Get(ctx, userID, id)
}

func (s *DreamService) UpdateDream(ctx context.Context, userID uuid.UUID, id string, req UpdateDreamRequest) (*Dream, error) {
	return s.repo.Update(ctx, userID, id, func(d *Dream) error {
		if req.Title != nil {
			d.Title = *req.Title
		}
		if req.Content != nil {
			d.Content = *req.Content
		}
		if req.Date != nil {
			d.Date = *req.Date
		}
		if req.Tags != nil {
			d.Tags = *req.Tags
		}
		if req.Mood != nil {
			d.Mood = *req.Mood
		}
		if req.ClearImage {
			d.Image = nil
		} else if req.Image != nil {
			d.Image = req.Image
		}
		if req.IsLucid != nil {
			d.IsLucid = *req.IsLucid
		}
		if req.IsNightmare != nil {
			d.IsNightmare = *req.IsNightmare
		}
		if req.Analysis != nil {
			d.Analysis = req.Analysis
		}
		if req.Recommendations != nil {
			d.Recommendations = *req.Recommendations
		}
		return s.normalize(d)
	})
}

func (s *DreamService) DeleteDream(ctx context.Context, userID uuid.UUID, id string) error {
	return s.repo.Delete(ctx, userID, id)
}

func (s *DreamService) ClearDreams(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.Clear(ctx, userID)
}

// GetStats aggregates the committed collection as of the service clock.
func (s *DreamService) GetStats(ctx context.Context, userID uuid.UUID) (*DreamStats, error) {
	dreams, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list dreams: %w", err)
	}
	stats := ComputeStats(dreams, s.clock())
	return &stats, nil
}

// AnalyzeDream asks the interpreter for a reading and stores it on the dream.
func (s *DreamService) AnalyzeDream(ctx context.Context, userID uuid.UUID, id string) (*Dream, error) {
	if s.collab.Interpreter == nil {
		return nil, services.ErrAIUnavailable
	}
	dream, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	analysis, err := s.collab.Interpreter.Interpret(ctx, dream.Title, dream.Content, string(dream.Mood))
	if err != nil {
		return nil, fmt.Errorf("interpret dream: %w", err)
	}

	return s.repo.Update(ctx, userID, id, func(d *Dream) error {
		d.Analysis = &analysis
		return nil
	})
}

// GenerateRecommendations asks the interpreter for advice and stores it on the dream.
func (s *DreamService) GenerateRecommendations(ctx context.Context, userID uuid.UUID, id string) (*Dream, error) {
	if s.collab.Interpreter == nil {
		return nil, services.ErrAIUnavailable
	}
	dream, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	recs, err := s.collab.Interpreter.Recommend(ctx, dream.Title, dream.Content, string(dream.Mood))
	if err != nil {
		return nil, fmt.Errorf("recommend for dream: %w", err)
	}

	return s.repo.Update(ctx, userID, id, func(d *Dream) error {
		d.Recommendations = recs
		return nil
	})
}

func (s *DreamService) GenerateImage(ctx context.Context, req GenerateImageRequest) (string, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" && content == "" {
		return "", services.ErrImagePromptRequired
	}
	if s.collab.Illustrator == nil {
		return "", services.ErrAIUnavailable
	}
	return s.collab.Illustrator.Illustrate(ctx, title, content)
}

func (s *DreamService) Transcribe(ctx context.Context, audio io.Reader, language string) (string, error) {
	if s.collab.Transcriber == nil {
		return "", services.ErrTranscriptionUnavailable
	}
	return s.collab.Transcriber.Transcribe(ctx, audio, strings.TrimSpace(language))
}

func (s *DreamService) Export(ctx context.Context, userID uuid.UUID) (*ExportResponse, error) {
	dreams, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list dreams: %w", err)
	}
	return &ExportResponse{ExportedAt: s.clock().UTC(), Dreams: dreams}, nil
}

// Import validates every record, then swaps the user's collection for it.
// Missing, malformed or repeated ids are replaced with fresh ones.
func (s *DreamService) Import(ctx context.Context, userID uuid.UUID, dreams []Dream) (int, error) {
	seen := make(map[string]struct{}, len(dreams))
	records := make([]Dream, len(dreams))
	for i, d := range dreams {
		if err := s.normalize(&d); err != nil {
			return 0, fmt.Errorf("dream %d: %w", i+1, err)
		}
		if _, err := ulid.ParseStrict(d.ID); err != nil {
			d.ID = ulid.Make().String()
		}
		if _, dup := seen[d.ID]; dup {
			d.ID = ulid.Make().String()
		}
		seen[d.ID] = struct{}{}
		d.UserID = userID
		records[i] = d
	}

	if err := s.repo.Replace(ctx, userID, records); err != nil {
		return 0, fmt.Errorf("replace dreams: %w", err)
	}
	return len(records), nil
}

func (s *DreamService) Subscribe(userID uuid.UUID) (<-chan ChangeEvent, func()) {
	return s.repo.Subscribe(userID)
}
