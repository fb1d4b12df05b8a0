package domain

import "time"

// Kind identifies the logical collection an item belongs to
type Kind string

const (
	KindEvent   Kind = "event"
	KindArticle Kind = "article"
)

// EventMode is how an event is attended
type EventMode string

const (
	ModeAll      EventMode = "all"
	ModeOnline   EventMode = "online"
	ModeInPerson EventMode = "in-person"
	ModeHybrid   EventMode = "hybrid"
)

// EventModes lists the concrete modes in display order
var EventModes = []EventMode{ModeOnline, ModeInPerson, ModeHybrid}

// EventStatus is where an event is in its lifecycle
type EventStatus string

const (
	StatusAll       EventStatus = "all"
	StatusUpcoming  EventStatus = "upcoming"
	StatusOngoing   EventStatus = "ongoing"
	StatusCompleted EventStatus = "completed"
	StatusCancelled EventStatus = "cancelled"
)

// EventStatuses lists the concrete statuses in display order
var EventStatuses = []EventStatus{StatusUpcoming, StatusOngoing, StatusCompleted, StatusCancelled}

// ArticleCategory groups articles by editorial type
type ArticleCategory string

const (
	CategoryAll      ArticleCategory = "all"
	CategoryTutorial ArticleCategory = "tutorial"
	CategoryNews     ArticleCategory = "news"
	CategoryStory    ArticleCategory = "story"
	CategoryOpinion  ArticleCategory = "opinion"
)

// ArticleCategories lists the concrete categories in display order
var ArticleCategories = []ArticleCategory{CategoryTutorial, CategoryNews, CategoryStory, CategoryOpinion}

// IsAll reports whether the mode facet is neutral
func (m EventMode) IsAll() bool { return m == "" || m == ModeAll }

// IsAll reports whether the status facet is neutral
func (s EventStatus) IsAll() bool { return s == "" || s == StatusAll }

// IsAll reports whether the category facet is neutral
func (c ArticleCategory) IsAll() bool { return c == "" || c == CategoryAll }

// Event represents a listed event (hackathon, workshop, meetup...)
type Event struct {
	ID          string      `json:"id" yaml:"id"`
	Slug        string      `json:"slug,omitempty" yaml:"slug"`
	Title       string      `json:"title" yaml:"title"`
	Description string      `json:"description,omitempty" yaml:"description"`
	Tags        []string    `json:"tags,omitempty" yaml:"tags"`
	ImageURL    string      `json:"image_url,omitempty" yaml:"image_url"`
	Mode        EventMode   `json:"mode,omitempty" yaml:"mode"`
	Status      EventStatus `json:"status,omitempty" yaml:"status"`
	Location    string      `json:"location,omitempty" yaml:"location"`
	StartsAt    time.Time   `json:"starts_at,omitempty" yaml:"starts_at"`
}

// Item converts the event into its searchable form
func (e *Event) Item() SearchableItem {
	return SearchableItem{
		Kind:        KindEvent,
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Tags:        e.Tags,
		ImageURL:    e.ImageURL,
	}
}

// Article represents a published article
type Article struct {
	ID            string          `json:"id" yaml:"id"`
	Slug          string          `json:"slug,omitempty" yaml:"slug"`
	Title         string          `json:"title" yaml:"title"`
	Excerpt       string          `json:"excerpt,omitempty" yaml:"excerpt"`
	Content       string          `json:"content,omitempty" yaml:"content"`
	Tags          []string        `json:"tags,omitempty" yaml:"tags"`
	FeaturedImage string          `json:"featured_image,omitempty" yaml:"featured_image"`
	Category      ArticleCategory `json:"category,omitempty" yaml:"category"`
	Author        string          `json:"author,omitempty" yaml:"author"`
	PublishedAt   time.Time       `json:"published_at,omitempty" yaml:"published_at"`
}

// Item converts the article into its searchable form
func (a *Article) Item() SearchableItem {
	return SearchableItem{
		Kind:        KindArticle,
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Excerpt,
		Tags:        a.Tags,
		ImageURL:    a.FeaturedImage,
	}
}

// ItemKey identifies an item across collections. IDs are only unique
// within a kind, so the pair is the identity.
type ItemKey struct {
	Kind Kind
	ID   string
}

func (k ItemKey) String() string {
	return string(k.Kind) + ":" + k.ID
}

// SearchableItem is the common shape list pages render
type SearchableItem struct {
	Kind        Kind
	ID          string
	Title       string
	Description string
	Tags        []string
	ImageURL    string
}

// Key returns the (kind, id) identity of the item
func (i SearchableItem) Key() ItemKey {
	return ItemKey{Kind: i.Kind, ID: i.ID}
}

// ResultItem is the normalized shape of an aggregated search hit
type ResultItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Type        Kind     `json:"type"`
	Slug        string   `json:"slug,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Image       string   `json:"image,omitempty"`
}

// Key returns the (kind, id) identity of the hit
func (r ResultItem) Key() ItemKey {
	return ItemKey{Kind: r.Type, ID: r.ID}
}

// Category is the tab bucket an event is classified into
type Category int

const (
	CategoryHackathon Category = iota
	CategoryCommunity
)

func (c Category) String() string {
	if c == CategoryHackathon {
		return "hackathon"
	}
	return "community"
}

// Tab identifies a list page tab
type Tab int

const (
	TabHackathons Tab = iota
	TabCommunity
	TabArticles
)

// Tabs lists the tabs in display order
var Tabs = []Tab{TabHackathons, TabCommunity, TabArticles}

func (t Tab) String() string {
	switch t {
	case TabHackathons:
		return "Hackathons"
	case TabCommunity:
		return "Community"
	case TabArticles:
		return "Articles"
	default:
		return "Unknown"
	}
}

// Kind returns the collection backing the tab
func (t Tab) Kind() Kind {
	if t == TabArticles {
		return KindArticle
	}
	return KindEvent
}

// Category returns the event bucket shown by an event tab
func (t Tab) Category() Category {
	if t == TabHackathons {
		return CategoryHackathon
	}
	return CategoryCommunity
}

// FilterState holds the active list filters
type FilterState struct {
	SearchTerm string
	Mode       EventMode
	Status     EventStatus
	Category   ArticleCategory
}

// NewFilterState returns the neutral filter state
func NewFilterState() FilterState {
	return FilterState{
		Mode:     ModeAll,
		Status:   StatusAll,
		Category: CategoryAll,
	}
}

// IsNeutral reports whether no filter narrows the list
func (f FilterState) IsNeutral() bool {
	return f.SearchTerm == "" && f.Mode.IsAll() && f.Status.IsAll() && f.Category.IsAll()
}

// FilterPatch is a partial update to FilterState; nil fields are left as is
type FilterPatch struct {
	SearchTerm *string
	Mode       *EventMode
	Status     *EventStatus
	Category   *ArticleCategory
}

// Apply returns f with the patch applied
func (p FilterPatch) Apply(f FilterState) FilterState {
	if p.SearchTerm != nil {
		f.SearchTerm = *p.SearchTerm
	}
	if p.Mode != nil {
		f.Mode = *p.Mode
	}
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.Category != nil {
		f.Category = *p.Category
	}
	return f
}

// LoadState tracks fetching of one source
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadLoading
	LoadSettled
)

func (s LoadState) String() string {
	switch s {
	case LoadLoading:
		return "loading"
	case LoadSettled:
		return "settled"
	default:
		return "idle"
	}
}
