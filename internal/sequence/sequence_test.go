package sequence

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shopflow-app/shopflow-backend/internal/testutil"
)

func TestNextFormatsAndIncrements(t *testing.T) {
	db := testutil.OpenDB(t)

	first, err := Next(db, PrefixEstimate)
	require.NoError(t, err)
	assert.Equal(t, "EST-0001", first)

	second, err := Next(db, PrefixEstimate)
	require.NoError(t, err)
	assert.Equal(t, "EST-0002", second)
}

func TestNextKeepsPrefixesIndependent(t *testing.T) {
	db := testutil.OpenDB(t)

	for i := 0; i < 3; i++ {
		_, err := Next(db, PrefixEstimate)
		require.NoError(t, err)
	}

	num, err := Next(db, PrefixInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-0001", num)
}

func TestNextConcurrentCallersGetDistinctNumbers(t *testing.T) {
	db := testutil.OpenDB(t)
	const callers = 20

	numbers := make(chan string, callers)
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- db.Transaction(func(tx *gorm.DB) error {
				num, err := Next(tx, PrefixEstimate)
				if err != nil {
					return err
				}
				numbers <- num
				return nil
			})
		}()
	}
	wg.Wait()
	close(numbers)
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Every caller gets its own number and the run leaves no gaps.
	seen := make(map[string]bool, callers)
	for num := range numbers {
		assert.False(t, seen[num], "duplicate number %s", num)
		seen[num] = true
	}
	require.Len(t, seen, callers)
	for i := 1; i <= callers; i++ {
		assert.True(t, seen[fmt.Sprintf("EST-%04d", i)])
	}
}

func TestNextRollbackReturnsNumber(t *testing.T) {
	db := testutil.OpenDB(t)

	tx := db.Begin()
	require.NoError(t, tx.Error)
	num, err := Next(tx, PrefixEstimate)
	require.NoError(t, err)
	assert.Equal(t, "EST-0001", num)
	require.NoError(t, tx.Rollback().Error)

	num, err = Next(db, PrefixEstimate)
	require.NoError(t, err)
	assert.Equal(t, "EST-0001", num)
}

func TestNextPadsToFourDigits(t *testing.T) {
	db := testutil.OpenDB(t)

	require.NoError(t, db.Exec(
		`INSERT INTO sequences (prefix, last_value) VALUES (?, ?)`, PrefixInvoice, 9999,
	).Error)

	num, err := Next(db, PrefixInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-10000", num)
}
