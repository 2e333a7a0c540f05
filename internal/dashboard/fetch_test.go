package dashboard

import (
	"context"
	"errors"
	"math"
	"testing"

	"trade-dashboard-go/internal/tradeapi"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFetch_LatestRequestWins_OlderResponseArrivesLast(t *testing.T) {
	// Arrange
	d, mockClient := setupTest(t)
	ctx := context.Background()

	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	mockClient.On("ListTrades", mock.Anything, listParams("A", 0)).
		Run(func(mock.Arguments) { close(startedA); <-releaseA }).
		Return(tradePage(2, "A", 1, 2), nil).Once()
	mockClient.On("ListTrades", mock.Anything, listParams("B", 0)).
		Return(tradePage(1, "B", 9), nil).Once()

	// Act
	errA := make(chan error, 1)
	go func() { errA <- d.SetFilter(ctx, "A") }()
	<-startedA

	errB := d.SetFilter(ctx, "B")
	close(releaseA)

	// Assert
	assert.NoError(t, errB)
	assert.ErrorIs(t, <-errA, ErrSuperseded)

	snap := d.Snapshot()
	assert.Equal(t, "B", snap.TradeCode)
	assert.Equal(t, int64(1), snap.Total)
	assert.Equal(t, []uint{9}, ids(snap.Items))
	assert.False(t, snap.Loading)
	mockClient.AssertExpectations(t)
}

func TestFetch_LatestRequestWins_OlderResponseArrivesFirst(t *testing.T) {
	// Arrange
	d, mockClient := setupTest(t)
	ctx := context.Background()

	startedB := make(chan struct{})
	releaseB := make(chan struct{})
	mockClient.On("ListTrades", mock.Anything, listParams("", 1)).
		Return(tradePage(120, "", 51, 52), nil).Once()
	mockClient.On("ListTrades", mock.Anything, listParams("", 2)).
		Run(func(mock.Arguments) { close(startedB); <-releaseB }).
		Return(tradePage(120, "", 101, 102), nil).Once()

	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	mockClient.On("ListTrades", mock.Anything, listParams("", 0)).
		Run(func(mock.Arguments) { close(startedA); <-releaseA }).
		Return(tradePage(120, "", 1, 2), nil).Once()

	// Page 1 loads normally so page 2 is reachable, then page 0 and page 2
	// are requested back to back.
	require.NoError(t, d.SetPage(ctx, 1))

	errA := make(chan error, 1)
	go func() { errA <- d.SetPage(ctx, 0) }()
	<-startedA

	errB := make(chan error, 1)
	go func() { errB <- d.SetPage(ctx, 2) }()
	<-startedB

	// Act: the older request completes first.
	close(releaseA)
	assert.ErrorIs(t, <-errA, ErrSuperseded)

	mid := d.Snapshot()
	assert.Equal(t, []uint{51, 52}, ids(mid.Items), "stale page must not be applied")
	assert.True(t, mid.Loading)

	close(releaseB)
	assert.NoError(t, <-errB)

	// Assert
	snap := d.Snapshot()
	assert.Equal(t, 2, snap.Page)
	assert.Equal(t, []uint{101, 102}, ids(snap.Items))
	assert.False(t, snap.Loading)
	mockClient.AssertExpectations(t)
}

func TestFetch_FilterChangeResetsPage(t *testing.T) {
	// Arrange
	d, mockClient := setupTest(t)
	ctx := context.Background()
	mockClient.On("ListTrades", mock.Anything, listParams("", 3)).Return(tradePage(500, "", 151), nil).Once()
	mockClient.On("ListTrades", mock.Anything, listParams("ACI", 0)).Return(tradePage(10, "ACI", 5), nil).Once()
	require.NoError(t, d.SetPage(ctx, 3))

	// Act
	err := d.SetFilter(ctx, "ACI")

	// Assert
	assert.NoError(t, err)
	snap := d.Snapshot()
	assert.Equal(t, 0, snap.Page)
	assert.Equal(t, "ACI", snap.TradeCode)
	mockClient.AssertExpectations(t)
}

func TestFetch_FailureKeepsLastKnownGood(t *testing.T) {
	// Arrange
	d, mockClient := setupTest(t)
	ctx := context.Background()
	loadPage(t, d, mockClient, tradePage(3, "", 1, 2, 3))
	mockClient.On("ListTrades", mock.Anything, listParams("ACI", 0)).Return(nil, errors.New("API down")).Once()

	// Act
	err := d.SetFilter(ctx, "ACI")

	// Assert
	assert.Error(t, err)
	snap := d.Snapshot()
	assert.EqualError(t, snap.Err, "API down")
	assert.False(t, snap.Loading)
	assert.Equal(t, int64(3), snap.Total)
	assert.Equal(t, []uint{1, 2, 3}, ids(snap.Items))
	mockClient.AssertExpectations(t)
}

func TestFetch_ErrorClearsOnNextRequest(t *testing.T) {
	d, mockClient := setupTest(t)
	ctx := context.Background()
	mockClient.On("ListTrades", mock.Anything, listParams("", 0)).Return(nil, errors.New("API down")).Once()
	mockClient.On("ListTrades", mock.Anything, listParams("", 0)).Return(tradePage(1, "", 1), nil).Once()

	assert.Error(t, d.Reload(ctx))
	assert.Error(t, d.Snapshot().Err)

	assert.NoError(t, d.Reload(ctx))
	assert.NoError(t, d.Snapshot().Err)
	mockClient.AssertExpectations(t)
}

func TestFetch_StaleFailureIsIgnored(t *testing.T) {
	// Arrange
	d, mockClient := setupTest(t)
	ctx := context.Background()

	startedA := make(chan struct{})
	releaseA := make(chan struct{})
	mockClient.On("ListTrades", mock.Anything, listParams("A", 0)).
		Run(func(mock.Arguments) { close(startedA); <-releaseA }).
		Return(nil, context.Canceled).Once()
	mockClient.On("ListTrades", mock.Anything, listParams("B", 0)).
		Return(tradePage(1, "B", 4), nil).Once()

	// Act
	errA := make(chan error, 1)
	go func() { errA <- d.SetFilter(ctx, "A") }()
	<-startedA
	require.NoError(t, d.SetFilter(ctx, "B"))
	close(releaseA)

	// Assert
	assert.ErrorIs(t, <-errA, ErrSuperseded)
	snap := d.Snapshot()
	assert.NoError(t, snap.Err)
	assert.Equal(t, []uint{4}, ids(snap.Items))
}

func TestFetch_SupersededRequestContextIsCanceled(t *testing.T) {
	d, mockClient := setupTest(t)
	ctx := context.Background()

	canceled := make(chan bool, 1)
	startedA := make(chan struct{})
	mockClient.On("ListTrades", mock.Anything, listParams("A", 0)).
		Run(func(args mock.Arguments) {
			reqCtx := args.Get(0).(context.Context)
			close(startedA)
			<-reqCtx.Done()
			canceled <- true
		}).
		Return(nil, context.Canceled).Once()
	mockClient.On("ListTrades", mock.Anything, listParams("B", 0)).
		Return(tradePage(0, "B"), nil).Once()

	errA := make(chan error, 1)
	go func() { errA <- d.SetFilter(ctx, "A") }()
	<-startedA
	require.NoError(t, d.SetFilter(ctx, "B"))

	assert.True(t, <-canceled)
	assert.ErrorIs(t, <-errA, ErrSuperseded)
}

func TestFetch_Navigation(t *testing.T) {
	d, mockClient := setupTest(t)
	ctx := context.Background()
	loadPage(t, d, mockClient, tradePage(125, "", 1))

	t.Run("PrevOnFirstPageIsNoop", func(t *testing.T) {
		assert.NoError(t, d.PrevPage(ctx))
		assert.Equal(t, 0, d.Snapshot().Page)
	})

	t.Run("NextUpToMaxPage", func(t *testing.T) {
		mockClient.On("ListTrades", mock.Anything, listParams("", 1)).Return(tradePage(125, "", 51), nil).Once()
		mockClient.On("ListTrades", mock.Anything, listParams("", 2)).Return(tradePage(125, "", 101), nil).Once()

		require.NoError(t, d.NextPage(ctx))
		require.NoError(t, d.NextPage(ctx))
		snap := d.Snapshot()
		assert.Equal(t, 2, snap.Page)
		assert.False(t, snap.HasNext)
		assert.True(t, snap.HasPrev)

		// Already on the last page: no request is issued.
		require.NoError(t, d.NextPage(ctx))
		assert.Equal(t, 2, d.Snapshot().Page)
	})

	t.Run("PrevPage", func(t *testing.T) {
		mockClient.On("ListTrades", mock.Anything, listParams("", 1)).Return(tradePage(125, "", 51), nil).Once()
		require.NoError(t, d.PrevPage(ctx))
		assert.Equal(t, 1, d.Snapshot().Page)
	})

	mockClient.AssertExpectations(t)
}

func TestFetch_ClosedIgnoresInFlightResponse(t *testing.T) {
	d, mockClient := setupTest(t)
	ctx := context.Background()
	loadPage(t, d, mockClient, tradePage(1, "", 1))

	started := make(chan struct{})
	release := make(chan struct{})
	mockClient.On("ListTrades", mock.Anything, listParams("ACI", 0)).
		Run(func(mock.Arguments) { close(started); <-release }).
		Return(tradePage(1, "ACI", 2), nil).Once()

	errc := make(chan error, 1)
	go func() { errc <- d.SetFilter(ctx, "ACI") }()
	<-started
	d.Close()
	close(release)

	assert.ErrorIs(t, <-errc, ErrSuperseded)
	assert.Equal(t, []uint{1}, ids(d.Snapshot().Items))

	// Nothing is requested after close.
	assert.NoError(t, d.Reload(ctx))
	mockClient.AssertExpectations(t)
}

func TestFetch_ClosedIgnoresQueryChanges(t *testing.T) {
	d, mockClient := setupTest(t)
	ctx := context.Background()
	loadPage(t, d, mockClient, tradePage(200, "", 1))
	d.Close()

	assert.NoError(t, d.SetFilter(ctx, "ACI"))
	assert.NoError(t, d.SetPage(ctx, 3))
	assert.NoError(t, d.NextPage(ctx))

	snap := d.Snapshot()
	assert.Equal(t, "", snap.TradeCode)
	assert.Equal(t, 0, snap.Page)
	mockClient.AssertExpectations(t)
}

func TestFetch_SetPageHugeKeepsOffsetPositive(t *testing.T) {
	d, mockClient := setupTest(t)
	mockClient.On("ListTrades", mock.Anything, mock.MatchedBy(func(p tradeapi.ListParams) bool {
		return p.Offset >= 0 && p.Limit == testPageSize
	})).Return(tradePage(10, ""), nil).Once()

	require.NoError(t, d.SetPage(context.Background(), math.MaxInt))

	snap := d.Snapshot()
	assert.Equal(t, math.MaxInt/testPageSize-1, snap.Page)
	assert.Equal(t, "Page 1 of 1", snap.PageLabel())
	mockClient.AssertExpectations(t)
}
