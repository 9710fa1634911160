package history

import "context"

// Document is a performer's completed-task category profile. Each
// completed task contributes each of its distinct categories once, so
// counting a tag's occurrences in Categories yields the number of
// tasks that carried it. TaskCount is the frequency denominator.
type Document struct {
	PerformerID string
	Categories  []string
	TaskCount   int
}

// Empty reports whether the performer has no usable history.
func (d Document) Empty() bool {
	return d.TaskCount == 0 || len(d.Categories) == 0
}

// Repository reads completed-task categories. Lookup failures surface
// as ErrDataUnavailable; callers score the candidate with an empty
// history instead of dropping them.
type Repository interface {
	CompletedCategories(ctx context.Context, performerID string) (tags []string, taskCount int, err error)
}

// Builder assembles history documents for the ranking pass.
type Builder struct {
	repo Repository
}

// NewBuilder creates a history profile builder over the given repository.
func NewBuilder(repo Repository) *Builder {
	return &Builder{repo: repo}
}

// Build fetches one performer's profile. The returned error is
// ErrDataUnavailable (or a wrap of it) when the lookup failed; the
// document is still valid to use as an empty history in that case.
func (b *Builder) Build(ctx context.Context, performerID string) (Document, error) {
	tags, count, err := b.repo.CompletedCategories(ctx, performerID)
	if err != nil {
		return Document{PerformerID: performerID}, err
	}
	return Document{
		PerformerID: performerID,
		Categories:  tags,
		TaskCount:   count,
	}, nil
}
