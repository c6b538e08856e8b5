package model

import "time"

// Review represents a row in the `reviews` table. A user may review a
// given title at most once; the pair (author, title) is unique at the
// storage layer so concurrent duplicate attempts settle there. Reviews
// cascade-delete with their title and with their author.
//
// Fields:
//  ID             – primary key identifier.
//  TitleID        – reviewed title.
//  AuthorID       – review author.
//  AuthorUsername – author's username, joined in for responses; the raw
//                   user record is never exposed.
//  Text           – review body.
//  Score          – rating in [1,10].
//  CreatedAt      – publication timestamp, set once at creation.
type Review struct {
	ID             uint64    // reviews.id
	TitleID        uint64    // reviews.title_id
	AuthorID       uint64    // reviews.author_id
	AuthorUsername string    // users.username, joined
	Text           string    // reviews.text
	Score          int       // reviews.score
	CreatedAt      time.Time // reviews.created_at
}

// Comment represents a row in the `comments` table. Comments hang off a
// review and cascade-delete with it and with their author.
//
// Fields:
//  ID             – primary key identifier.
//  ReviewID       – parent review.
//  AuthorID       – comment author.
//  AuthorUsername – author's username, joined in for responses.
//  Text           – comment body.
//  CreatedAt      – publication timestamp.
type Comment struct {
	ID             uint64    // comments.id
	ReviewID       uint64    // comments.review_id
	AuthorID       uint64    // comments.author_id
	AuthorUsername string    // users.username, joined
	Text           string    // comments.text
	CreatedAt      time.Time // comments.created_at
}
