package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacagente/models"
)

// fakeMessageLister отдаёт страницы в обратном хронологическом порядке,
// как настоящий бэкенд
type fakeMessageLister struct {
	pages map[int][]models.Message
	fail  bool
}

func (f *fakeMessageLister) ChatMessages(_ context.Context, casoID string, page, size int) ([]models.Message, error) {
	if f.fail {
		return nil, fmt.Errorf("backend caído")
	}
	return f.pages[page], nil
}

func msg(id string, at time.Time) models.Message {
	return models.Message{ID: id, CaseID: "c1", SentAt: at, Text: id}
}

func TestLoadInitialReversesToChronological(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeMessageLister{pages: map[int][]models.Message{
		// свежие первыми, как отдаёт бэкенд
		0: {msg("m3", base.Add(3 * time.Minute)), msg("m2", base.Add(2 * time.Minute)), msg("m1", base.Add(time.Minute))},
	}}
	s := NewMessageStore(api)

	got, err := s.LoadInitial(context.Background(), "c1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m3", got[2].ID)
	assert.True(t, s.HasMore(), "ровно полная страница")
}

func TestLoadOlderPrependsAndReturnsDelta(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeMessageLister{pages: map[int][]models.Message{
		0: {msg("m4", base.Add(4 * time.Minute)), msg("m3", base.Add(3 * time.Minute))},
		1: {msg("m2", base.Add(2 * time.Minute)), msg("m1", base.Add(time.Minute))},
	}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 2)
	require.NoError(t, err)

	added, err := s.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, added, "дельта для якоря прокрутки")

	got := s.Messages()
	require.Len(t, got, 4)
	assert.Equal(t, []string{"m1", "m2", "m3", "m4"},
		[]string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
}

func TestLoadOlderDeduplicatesOverlap(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	api := &fakeMessageLister{pages: map[int][]models.Message{
		0: {msg("m3", base.Add(3 * time.Minute)), msg("m2", base.Add(2 * time.Minute))},
		// страница поехала: m2 повторился после вставки нового сообщения
		1: {msg("m2", base.Add(2 * time.Minute)), msg("m1", base.Add(time.Minute))},
	}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 2)
	require.NoError(t, err)

	added, err := s.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, 3, s.Len())
}

func TestLoadOlderStopsAtEnd(t *testing.T) {
	base := time.Now()
	api := &fakeMessageLister{pages: map[int][]models.Message{
		0: {msg("m1", base)},
	}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 2)
	require.NoError(t, err)
	require.False(t, s.HasMore())

	added, err := s.LoadOlder(context.Background())
	require.NoError(t, err)
	assert.Zero(t, added, "конец истории - запрос даже не уходит")
}

func TestAppendIdempotent(t *testing.T) {
	api := &fakeMessageLister{pages: map[int][]models.Message{}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 10)
	require.NoError(t, err)

	m := msg("live1", time.Now())
	assert.True(t, s.Append(m))
	assert.False(t, s.Append(m), "повторная доставка не дублирует")
	assert.Equal(t, 1, s.Len())
}

func TestAppendRejectsForeignCase(t *testing.T) {
	api := &fakeMessageLister{pages: map[int][]models.Message{}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 10)
	require.NoError(t, err)

	foreign := models.Message{ID: "x", CaseID: "otro"}
	assert.False(t, s.Append(foreign))
}

func TestLoadInitialReplacesOnCaseSwitch(t *testing.T) {
	base := time.Now()
	api := &fakeMessageLister{pages: map[int][]models.Message{
		0: {msg("m1", base)},
	}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 10)
	require.NoError(t, err)

	api.pages[0] = []models.Message{{ID: "n1", CaseID: "c2", SentAt: base}}
	_, err = s.LoadInitial(context.Background(), "c2", 10)
	require.NoError(t, err)

	assert.Equal(t, "c2", s.CaseID())
	require.Equal(t, 1, s.Len())
	assert.Equal(t, "n1", s.Messages()[0].ID, "история прежнего чата не протекает")
}

func TestResetClearsEverything(t *testing.T) {
	base := time.Now()
	api := &fakeMessageLister{pages: map[int][]models.Message{
		0: {msg("m1", base)},
	}}
	s := NewMessageStore(api)
	_, err := s.LoadInitial(context.Background(), "c1", 10)
	require.NoError(t, err)

	s.Reset()
	assert.Empty(t, s.CaseID())
	assert.Zero(t, s.Len())
	assert.False(t, s.HasMore())
}
