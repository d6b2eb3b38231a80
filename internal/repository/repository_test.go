package repository

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jazzvault/JazzVault/internal/models"
)

// execRecorder captures Exec calls for write-order assertions. The tests
// that use it never reach Query/QueryRow.
type execRecorder struct {
	queries []string
	args    [][]interface{}
}

type execResult struct{}

func (execResult) LastInsertId() (int64, error) { return 0, nil }
func (execResult) RowsAffected() (int64, error) { return 1, nil }

func (r *execRecorder) Exec(query string, args ...interface{}) (sql.Result, error) {
	r.queries = append(r.queries, query)
	r.args = append(r.args, args)
	return execResult{}, nil
}

func (r *execRecorder) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, sql.ErrNoRows
}

func (r *execRecorder) QueryRow(query string, args ...interface{}) *sql.Row {
	return nil
}

func TestContributionUpsertEmptyDeletes(t *testing.T) {
	rec := &execRecorder{}
	repo := &ContributionRepository{q: rec}

	c := &models.UserContribution{RecordingID: uuid.New(), UserID: uuid.New()}
	final, err := repo.Upsert(c)
	require.NoError(t, err)
	assert.Nil(t, final)

	require.Len(t, rec.queries, 1)
	assert.Contains(t, rec.queries[0], "DELETE FROM user_contributions")
	require.Len(t, rec.args[0], 2)
	assert.Equal(t, c.RecordingID, rec.args[0][0])
	assert.Equal(t, c.UserID, rec.args[0][1])
}

func TestSongDeleteCascadeOrder(t *testing.T) {
	rec := &execRecorder{}
	repo := &SongRepository{q: rec}

	require.NoError(t, repo.Delete(uuid.New()))

	wantOrder := []string{
		"solo_transcriptions",
		"recording_performers",
		"recording_releases",
		"user_contributions",
		"DELETE FROM recordings",
		"repertoire_songs",
		"song_references",
		"DELETE FROM songs",
	}
	require.Len(t, rec.queries, len(wantOrder))
	for i, want := range wantOrder {
		assert.Contains(t, rec.queries[i], want, "step %d", i)
	}
}

// A performer can appear in several non-instrument relations (vocal plus
// conductor, say); the insert must treat two NULL instrument_ids as the same
// row, which ON CONFLICT would not.
func TestRecordingPerformerLinkGuardsNullInstrument(t *testing.T) {
	rec := &execRecorder{}
	repo := &LinkRepository{q: rec}

	link := &models.RecordingPerformer{
		RecordingID: uuid.New(),
		PerformerID: uuid.New(),
		Role:        models.RoleSideman,
	}
	require.NoError(t, repo.LinkRecordingPerformer(link))

	require.Len(t, rec.queries, 1)
	assert.Contains(t, rec.queries[0], "instrument_id IS NOT DISTINCT FROM")
	require.Len(t, rec.args[0], 5)
	assert.Nil(t, rec.args[0][3])
}

// The manual-override rule lives in the SQL itself: provider writes must
// never replace a curated row.
func TestStreamingUpsertFiltersManualRows(t *testing.T) {
	for _, query := range []string{releaseLinkUpsert, trackLinkUpsert} {
		assert.True(t, strings.Contains(query, "match_method != 'manual'"),
			"upsert must carry the manual filter:\n%s", query)
	}
}
