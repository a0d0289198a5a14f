package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"ripple/internal/cache"
	"ripple/internal/models"
	"ripple/internal/repository"
)

// FeedPageSize is the fixed number of posts per feed page.
const FeedPageSize = 20

const maxPostContentLen = 5000
const maxCommentLen = 1000
const maxPostImages = 4

// PostService provides post, feed, and engagement business logic.
type PostService struct {
	postRepo     repository.PostRepository
	userRepo     repository.UserRepository
	notification *NotificationService
}

// CreatePostInput is the input for creating a post.
type CreatePostInput struct {
	AuthorID uint
	Content  string
	Images   []string
}

// ListFeedInput is the input for fetching a feed page.
type ListFeedInput struct {
	UserID        uint
	Page          int
	FollowingOnly bool
}

// NewPostService returns a new PostService.
func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notification *NotificationService,
) *PostService {
	return &PostService{
		postRepo:     postRepo,
		userRepo:     userRepo,
		notification: notification,
	}
}

var hashtagPattern = regexp.MustCompile(`#\w+`)

// ExtractHashtags returns the lowercased hashtags found in the text, in
// order of appearance. Repeated tags are kept so trending counts weigh
// every mention.
func ExtractHashtags(text string) []string {
	matches := hashtagPattern.FindAllString(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, strings.ToLower(m))
	}
	return tags
}

// CreatePost creates a post, extracting hashtags from its content.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && len(in.Images) == 0 {
		return nil, models.NewValidationError("Post must have content or images")
	}
	if len(content) > maxPostContentLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}
	if len(in.Images) > maxPostImages {
		return nil, models.NewValidationError("Too many images (max 4)")
	}

	post := &models.Post{
		AuthorID: in.AuthorID,
		Content:  content,
		Images:   in.Images,
		Hashtags: ExtractHashtags(content),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return s.GetPost(ctx, post.ID, in.AuthorID)
}

// GetPost returns a single post as seen by the current user. The row and
// its counts are cached; likes, shares, comments and deletes invalidate the
// entry. Per-viewer flags are resolved fresh on every call.
func (s *PostService) GetPost(ctx context.Context, postID, currentUserID uint) (*models.PostView, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(postID), &post, cache.PostTTL, func() error {
		loaded, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		post = *loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	views, err := s.buildPostViews(ctx, []*models.Post{&post}, currentUserID)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// ListFeed returns one page of the feed. Pages are 1-based. With
// FollowingOnly set, only posts authored by followed accounts are returned;
// a user who follows nobody falls back to the global feed so the page is
// never empty by construction.
func (s *PostService) ListFeed(ctx context.Context, in ListFeedInput) ([]*models.PostView, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * FeedPageSize

	var posts []*models.Post
	var err error

	if in.FollowingOnly {
		authorIDs, ferr := s.userRepo.GetFollowingIDs(ctx, in.UserID)
		if ferr != nil {
			return nil, ferr
		}
		if len(authorIDs) == 0 {
			posts, err = s.postRepo.List(ctx, FeedPageSize, offset)
		} else {
			posts, err = s.postRepo.ListByAuthors(ctx, authorIDs, FeedPageSize, offset)
		}
	} else {
		err = cache.Aside(ctx, cache.FeedKey(0, page), &posts, cache.FeedTTL, func() error {
			var fetchErr error
			posts, fetchErr = s.postRepo.List(ctx, FeedPageSize, offset)
			return fetchErr
		})
	}
	if err != nil {
		return nil, err
	}

	return s.buildPostViews(ctx, posts, in.UserID)
}

// GetUserPosts returns one page of a single author's posts. Pages are
// 1-based.
func (s *PostService) GetUserPosts(ctx context.Context, authorID, currentUserID uint, page int) ([]*models.PostView, error) {
	if page < 1 {
		page = 1
	}
	posts, err := s.postRepo.GetByAuthorID(ctx, authorID, FeedPageSize, (page-1)*FeedPageSize)
	if err != nil {
		return nil, err
	}
	return s.buildPostViews(ctx, posts, currentUserID)
}

// DeletePost removes the post if the caller authored it.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// ToggleLike likes the post if not yet liked, otherwise removes the like.
// A new like notifies the post author.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID uint) (*models.PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	created, err := s.postRepo.Like(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !created {
		if _, err := s.postRepo.Unlike(ctx, userID, postID); err != nil {
			return nil, err
		}
	} else if s.notification != nil {
		liker, lerr := s.userRepo.GetByID(ctx, userID)
		if lerr != nil {
			return nil, lerr
		}
		if err := s.notification.NotifyLike(ctx, post.AuthorID, liker); err != nil {
			return nil, err
		}
	}

	return s.GetPost(ctx, postID, userID)
}

// ToggleShare shares the post if not yet shared, otherwise removes the share.
func (s *PostService) ToggleShare(ctx context.Context, userID, postID uint) (*models.PostView, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	created, err := s.postRepo.Share(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !created {
		if _, err := s.postRepo.Unshare(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	return s.GetPost(ctx, postID, userID)
}

// ToggleBookmark bookmarks the post if not yet bookmarked, otherwise removes
// the bookmark. Bookmarks are private to the caller.
func (s *PostService) ToggleBookmark(ctx context.Context, userID, postID uint) (*models.PostView, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	created, err := s.postRepo.Bookmark(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if !created {
		if _, err := s.postRepo.Unbookmark(ctx, userID, postID); err != nil {
			return nil, err
		}
	}

	return s.GetPost(ctx, postID, userID)
}

// AddComment appends a comment to the post and notifies the author.
func (s *PostService) AddComment(ctx context.Context, userID, postID uint, text string) (*models.PostView, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, models.NewValidationError("Comment text is required")
	}
	if len(text) > maxCommentLen {
		return nil, models.NewValidationError("Comment too long (max 1000 characters)")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: userID,
		Text:   text,
	}
	if err := s.postRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	if s.notification != nil {
		commenter, cerr := s.userRepo.GetByID(ctx, userID)
		if cerr != nil {
			return nil, cerr
		}
		if err := s.notification.NotifyComment(ctx, post.AuthorID, commenter); err != nil {
			return nil, err
		}
	}

	return s.GetPost(ctx, postID, userID)
}

const trendingWindow = 7 * 24 * time.Hour
const trendingSampleSize = 500

// TrendingHashtags returns the most used hashtags from recent posts, most
// frequent first. Ties break alphabetically so the result is stable.
func (s *PostService) TrendingHashtags(ctx context.Context, limit int) ([]models.HashtagCount, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	var counts []models.HashtagCount
	err := cache.Aside(ctx, cache.TrendingKey, &counts, cache.TrendingTTL, func() error {
		tags, err := s.postRepo.RecentHashtags(ctx, time.Now().Add(-trendingWindow), trendingSampleSize)
		if err != nil {
			return err
		}

		byTag := make(map[string]int, len(tags))
		for _, tag := range tags {
			byTag[tag]++
		}

		counts = make([]models.HashtagCount, 0, len(byTag))
		for tag, count := range byTag {
			counts = append(counts, models.HashtagCount{Tag: tag, Count: count})
		}
		sort.Slice(counts, func(i, j int) bool {
			if counts[i].Count != counts[j].Count {
				return counts[i].Count > counts[j].Count
			}
			return counts[i].Tag < counts[j].Tag
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts, nil
}

// buildPostViews assembles API-shaped post views: author summary, engagement
// user ID sets, and the current user's own flags.
func (s *PostService) buildPostViews(ctx context.Context, posts []*models.Post, currentUserID uint) ([]*models.PostView, error) {
	if len(posts) == 0 {
		return []*models.PostView{}, nil
	}

	postIDs := make([]uint, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
	}

	likers, err := s.postRepo.LikerIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}
	sharers, err := s.postRepo.SharerIDs(ctx, postIDs)
	if err != nil {
		return nil, err
	}

	bookmarked := map[uint]bool{}
	if currentUserID != 0 {
		ids, err := s.postRepo.BookmarkedPostIDs(ctx, currentUserID, postIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			bookmarked[id] = true
		}
	}

	views := make([]*models.PostView, len(posts))
	for i, p := range posts {
		views[i] = models.NewPostView(p, likers[p.ID], sharers[p.ID], bookmarked[p.ID], currentUserID)
	}
	return views, nil
}
