package repositories

import (
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_MessageHistory_Performance(t *testing.T) {
	if testing.Short() {
		t.Skip("performance test")
	}
	req := require.New(t)
	db := openBadger(t)
	limit := 50
	repo := NewMessageRepository(db, slog.Default(), &limit)

	totalMessages := 100_000
	targetRoom := "room-42"

	// --- Phase 1: SEEDING ---
	fmt.Printf("Starting seeding of %d messages...\n", totalMessages)
	startSeed := time.Now()
	base := time.Now()
	for i := 0; i < totalMessages; i++ {
		req.NoError(repo.StoreMessage(DiskMessage{
			ID:         uuid.New(),
			Room:       fmt.Sprintf("room-%d", i%100),
			SenderName: fmt.Sprintf("user_%d", i%500),
			SenderUUID: uuid.New(),
			Content:    "Hello world, this is a performance test for cryptochat!",
			// Nanosecond steps keep keys unique and ordered
			At: base.Add(time.Duration(i) * time.Nanosecond),
		}))
	}
	fmt.Printf("✅ Seeding: %v\n", time.Since(startSeed))

	// --- Phase 2: FIRST PAGE OF ONE ROOM ---
	startRead := time.Now()
	page, cursor, err := repo.GetMessages(targetRoom, nil)
	req.NoError(err)
	req.Len(page, limit)
	req.NotNil(cursor)
	fmt.Printf("✅ First page of %s: %v\n", targetRoom, time.Since(startRead))

	// --- Phase 3: WALKING THE WHOLE ROOM ---
	startWalk := time.Now()
	total := len(page)
	for cursor != nil {
		page, cursor, err = repo.GetMessages(targetRoom, cursor)
		req.NoError(err)
		total += len(page)
	}
	req.Equal(totalMessages/100, total)
	fmt.Printf("✅ Full history of %s (%d messages): %v\n", targetRoom, total, time.Since(startWalk))
}
