package state

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/handvol/internal/gesture"
)

func snapshotFor(i int) Snapshot {
	return Snapshot{
		Label:           gesture.LabelHalfOpen,
		SmoothedPercent: i % 101,
		Distance:        float64(i) * 2,
		AccuracyPercent: float64(i%100) + 0.5,
		ResponseTimeMs:  float64(i) / 4,
		FingersExtended: i % 5,
		Frame:           uint64(i),
	}
}

func TestStore_InitialView(t *testing.T) {
	s := NewStore(DefaultHistorySize)

	v := s.Load()
	require.NotNil(t, v)
	assert.Equal(t, RestSnapshot(), v.Snapshot)
	assert.Empty(t, v.Histories.Volume)
	assert.Nil(t, v.Image)
	assert.Equal(t, DefaultHistorySize, s.Capacity())
}

func TestStore_DefaultCapacity(t *testing.T) {
	assert.Equal(t, DefaultHistorySize, NewStore(0).Capacity())
}

func TestStore_Publish(t *testing.T) {
	s := NewStore(10)
	snap := snapshotFor(42)

	s.Publish(snap, []byte{0xff, 0xd8})

	v := s.Load()
	if diff := cmp.Diff(snap, v.Snapshot); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []float64{42}, v.Histories.Volume)
	assert.Equal(t, []float64{10.5}, v.Histories.ResponseTime)
	assert.Equal(t, []float64{42.5}, v.Histories.Accuracy)
	assert.Equal(t, []byte{0xff, 0xd8}, v.Image)
	assert.Equal(t, uint64(1), v.Seq)
}

func TestStore_HistoryBound(t *testing.T) {
	s := NewStore(DefaultHistorySize)

	const total = 250
	for i := 0; i < total; i++ {
		s.Publish(snapshotFor(i), nil)
	}

	h := s.Histories()
	require.Len(t, h.Volume, DefaultHistorySize)
	require.Len(t, h.ResponseTime, DefaultHistorySize)
	require.Len(t, h.Accuracy, DefaultHistorySize)

	for j := 0; j < DefaultHistorySize; j++ {
		want := snapshotFor(total - DefaultHistorySize + j)
		assert.Equal(t, float64(want.SmoothedPercent), h.Volume[j], "volume[%d]", j)
		assert.Equal(t, want.ResponseTimeMs, h.ResponseTime[j], "response[%d]", j)
		assert.Equal(t, want.AccuracyPercent, h.Accuracy[j], "accuracy[%d]", j)
	}
}

func TestStore_ReaderIsolation(t *testing.T) {
	s := NewStore(10)
	s.Publish(snapshotFor(1), nil)

	h := s.Histories()
	h.Volume[0] = 1000

	held := s.Load()
	s.Publish(snapshotFor(2), nil)

	assert.Equal(t, []float64{1}, s.Histories().Volume[:1], "copy-out must not alias store state")
	assert.Equal(t, snapshotFor(1), held.Snapshot, "a held view must not change after later publishes")
	assert.Len(t, held.Histories.Volume, 1)
}

func TestStore_ResetAndRest(t *testing.T) {
	s := NewStore(10)
	for i := 0; i < 5; i++ {
		s.Publish(snapshotFor(i), []byte{byte(i)})
	}

	s.Rest()
	v := s.Load()
	assert.Equal(t, RestSnapshot(), v.Snapshot)
	assert.Len(t, v.Histories.Volume, 5, "rest keeps histories")
	assert.Equal(t, []byte{4}, v.Image, "rest keeps the last image")

	s.Reset()
	v = s.Load()
	assert.Equal(t, RestSnapshot(), v.Snapshot)
	assert.Empty(t, v.Histories.Volume)
	assert.Empty(t, v.Histories.ResponseTime)
	assert.Empty(t, v.Histories.Accuracy)
	assert.Nil(t, v.Image)
	assert.Equal(t, uint64(7), v.Seq)
}

func TestStore_ConcurrentPublishAndRead(t *testing.T) {
	s := NewStore(DefaultHistorySize)

	const publishes = 5000
	var wg sync.WaitGroup
	done := make(chan struct{})

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastSeq uint64
			for {
				select {
				case <-done:
					return
				default:
				}

				v := s.Load()
				if v.Seq < lastSeq {
					t.Errorf("sequence went backwards: %d after %d", v.Seq, lastSeq)
					return
				}
				lastSeq = v.Seq

				if v.Seq == 0 {
					continue
				}
				// Every field must come from the same publish.
				want := snapshotFor(int(v.Snapshot.Frame))
				if v.Snapshot != want {
					t.Errorf("torn snapshot: got %+v, want %+v", v.Snapshot, want)
					return
				}
				if n := len(v.Histories.Volume); n == 0 || v.Histories.Volume[n-1] != float64(want.SmoothedPercent) {
					t.Errorf("history tail does not match snapshot %d", v.Snapshot.Frame)
					return
				}
			}
		}()
	}

	for i := 0; i < publishes; i++ {
		s.Publish(snapshotFor(i), nil)
	}
	close(done)
	wg.Wait()

	assert.Equal(t, uint64(publishes-1), s.Snapshot().Frame)
}
