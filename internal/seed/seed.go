package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"ripple/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
	// MaxDays bounds how far back generated post timestamps reach.
	MaxDays int
	// DryRun logs what would be created without writing to the database.
	DryRun bool
}

// hashtagPool is the vocabulary generated posts draw their tags from. A
// small pool keeps the trending list non-degenerate on fresh databases.
var hashtagPool = []string{
	"#golang", "#coding", "#coffee", "#travel", "#music", "#fitness",
	"#photography", "#foodie", "#gaming", "#books", "#movies", "#art",
	"#nature", "#startup", "#design", "#science", "#history", "#diy",
}

func randomHashtags(r *rand.Rand, n int) string {
	picked := make([]string, 0, n)
	seen := make(map[int]bool, n)
	for len(picked) < n {
		i := r.Intn(len(hashtagPool))
		if seen[i] {
			continue
		}
		seen[i] = true
		picked = append(picked, hashtagPool[i])
	}
	return strings.Join(picked, " ")
}

// Seed populates the database with demo data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("⚠️  Warning: Could not clear all existing data, but continuing anyway...")
		}
	}

	f := NewFactory(db, opts)

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))

	if err := seedFollowGraph(f, users); err != nil {
		return fmt.Errorf("failed to create follow graph: %w", err)
	}
	log.Println("✓ follow graph created")

	posts, err := createPosts(f, users, opts.NumPosts)
	if err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	if !opts.DryRun {
		if err := seedEngagement(f, users, posts); err != nil {
			return fmt.Errorf("failed to create engagement: %w", err)
		}
		log.Println("✓ likes, comments, shares and bookmarks created")

		if err := seedConversations(f, users); err != nil {
			return fmt.Errorf("failed to create conversations: %w", err)
		}
		log.Println("✓ conversations created")

		if err := seedStories(f, users); err != nil {
			return fmt.Errorf("failed to create stories: %w", err)
		}
		log.Println("✓ stories created")
	}

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

// clearData removes all seedable rows. Deletes run child-first so foreign
// keys hold on both Postgres and SQLite.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	tables := []interface{}{
		&models.Notification{},
		&models.Story{},
		&models.Message{},
		&models.ConversationParticipant{},
		&models.Conversation{},
		&models.Comment{},
		&models.Like{},
		&models.Share{},
		&models.Bookmark{},
		&models.Post{},
		&models.Follow{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	// Always include a few fixed handles so frontend devs have stable
	// accounts to look at.
	baseHandles := []string{"ripple", "demo", "test"}
	for _, h := range baseHandles {
		if len(users) >= count {
			break
		}
		h := h
		user, err := f.CreateUser(func(u *models.User) {
			u.SubjectID = "seed|" + h
			u.Handle = h
			u.Bio = "One of the OGs."
			u.Avatar = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", h)
		})
		if err != nil {
			// already present from an earlier run
			continue
		}
		users = append(users, user)
	}

	for i := len(users); i < count; i++ {
		user, err := f.CreateUser()
		if err != nil {
			log.Printf("Failed to create user: %v", err)
			continue
		}
		users = append(users, user)

		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}

	return users, nil
}

// seedFollowGraph gives each user a handful of follows so the
// following-only feed has something to show.
func seedFollowGraph(f *Factory, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	for _, follower := range users {
		targets := f.rand.Intn(4) + 2
		for j := 0; j < targets; j++ {
			followee := users[f.rand.Intn(len(users))]
			if followee.ID == follower.ID {
				continue
			}
			if f.opts.DryRun {
				continue
			}
			// unique index rejects duplicate edges, ignore those
			_ = f.CreateFollow(follower, followee)
		}
	}
	return nil
}

func createPosts(f *Factory, users []*models.User, count int) ([]*models.Post, error) {
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[f.rand.Intn(len(users))]
		posts = append(posts, f.BuildPost(author))
	}

	// chunked inserts keep large seeds fast
	const chunk = 200
	for start := 0; start < len(posts); start += chunk {
		end := start + chunk
		if end > len(posts) {
			end = len(posts)
		}
		if err := f.CreatePostsBatch(posts[start:end]); err != nil {
			return nil, err
		}
	}
	return posts, nil
}

func seedEngagement(f *Factory, users []*models.User, posts []*models.Post) error {
	for _, post := range posts {
		likes := f.rand.Intn(5)
		for j := 0; j < likes; j++ {
			user := users[f.rand.Intn(len(users))]
			if user.ID == post.AuthorID {
				continue
			}
			_ = f.CreateLike(user, post)
		}

		if f.rand.Float32() < 0.4 {
			user := users[f.rand.Intn(len(users))]
			if _, err := f.CreateComment(user, post); err != nil {
				return err
			}
		}
		if f.rand.Float32() < 0.2 {
			user := users[f.rand.Intn(len(users))]
			if user.ID != post.AuthorID {
				_ = f.CreateShare(user, post)
			}
		}
		if f.rand.Float32() < 0.2 {
			_ = f.CreateBookmark(users[f.rand.Intn(len(users))], post)
		}
	}
	return nil
}

func seedConversations(f *Factory, users []*models.User) error {
	if len(users) < 2 {
		return nil
	}
	pairs := len(users) / 2
	for i := 0; i < pairs; i++ {
		a := users[f.rand.Intn(len(users))]
		b := users[f.rand.Intn(len(users))]
		if a.ID == b.ID {
			continue
		}
		conv, err := f.CreateConversation(a, b)
		if err != nil {
			// the pair may already share a thread from an earlier round
			continue
		}
		messages := f.rand.Intn(6) + 2
		for j := 0; j < messages; j++ {
			sender := a
			if j%2 == 1 {
				sender = b
			}
			if _, err := f.CreateMessage(conv, sender); err != nil {
				return err
			}
		}
	}
	return nil
}

func seedStories(f *Factory, users []*models.User) error {
	for _, user := range users {
		if f.rand.Float32() < 0.3 {
			if _, err := f.CreateStory(user); err != nil {
				return err
			}
		}
	}
	return nil
}
