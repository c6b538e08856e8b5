package model

// Category represents a row in the `categories` table. A category is
// the coarse kind of a title (book, film, album). Titles reference a
// category weakly: deleting a category leaves its titles in place with
// a null category.
//
// Fields:
//  ID   – primary key identifier.
//  Name – display name of the category.
//  Slug – unique URL-safe identifier used in write requests and paths.
type Category struct {
	ID   uint64 // categories.id
	Name string // categories.name
	Slug string // categories.slug
}

// Genre represents a row in the `genres` table. Titles hold a set of
// genres through the title_genres join table; deleting a genre removes
// it from every title's set.
//
// Fields:
//  ID   – primary key identifier.
//  Name – display name of the genre.
//  Slug – unique URL-safe identifier.
type Genre struct {
	ID   uint64 // genres.id
	Name string // genres.name
	Slug string // genres.slug
}

// Title represents a catalog item being reviewed. The Category pointer
// is nil when the title has no category (never assigned, or the
// category was deleted). Genres carries the fully resolved genre rows
// in name order.
//
// Rating is the derived average review score. It is computed on read
// and never stored; nil means the title has no reviews yet.
//
// Fields:
//  ID          – primary key identifier.
//  Name        – title name.
//  Year        – release year, never later than the current year.
//  Description – optional free-form text.
//  Category    – resolved category, nil when unset.
//  Genres      – resolved genres, possibly empty.
//  Rating      – average of review scores, nil without reviews.
type Title struct {
	ID          uint64    // titles.id
	Name        string    // titles.name
	Year        int       // titles.year
	Description string    // titles.description
	Category    *Category // titles.category_id, resolved
	Genres      []Genre   // title_genres, resolved
	Rating      *float64  // derived, AVG(reviews.score)
}
