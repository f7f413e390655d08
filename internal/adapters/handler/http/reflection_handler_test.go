package http_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillmind-app/checkin-engine/internal/core/domain"
)

func TestReflectionHandler_Lifecycle(t *testing.T) {
	f := newFixture("user-h5")

	var created domain.ReflectionRecord

	t.Run("Create", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/reflections", gin.H{
			"text": "breath felt steady",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.NotZero(t, created.OccurredAt)
	})

	t.Run("List", func(t *testing.T) {
		w := f.do(t, http.MethodGet, "/api/v1/reflections", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []*domain.ReflectionRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "breath felt steady", list[0].Text)
	})

	t.Run("Delete by timestamp", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/reflections/%d", created.OccurredAt)
		w := f.do(t, http.MethodDelete, path, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			DeletedID string `json:"deleted_id"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, created.ID, resp.DeletedID)
	})

	t.Run("Delete miss maps to 404", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/reflections/123456", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Non-numeric timestamp maps to 400", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, "/api/v1/reflections/yesterday", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Empty text maps to 400", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/reflections", gin.H{"text": "  "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReflectionHandler_Linking(t *testing.T) {
	f := newFixture("user-h6")

	w := f.do(t, http.MethodPost, "/api/v1/checkins", gin.H{
		"duration_minutes": 20,
		"rating":           5,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var checkin struct {
		RecordID string `json:"record_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checkin))

	w = f.do(t, http.MethodPost, "/api/v1/reflections", gin.H{"text": "linked note"})
	require.Equal(t, http.StatusCreated, w.Code)

	var reflection domain.ReflectionRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reflection))

	t.Run("Link attaches the reflection", func(t *testing.T) {
		path := "/api/v1/checkins/" + checkin.RecordID + "/reflections"
		w := f.do(t, http.MethodPost, path, gin.H{"reflection_id": reflection.ID})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			ReflectionIDs domain.ReflectionIDList `json:"reflection_ids"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, domain.ReflectionIDList{reflection.ID}, resp.ReflectionIDs)
	})

	t.Run("Linked reflections resolve on read", func(t *testing.T) {
		path := "/api/v1/checkins/" + checkin.RecordID + "/reflections"
		w := f.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []*domain.ReflectionRecord
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		require.Len(t, list, 1)
		assert.Equal(t, "linked note", list[0].Text)
	})

	t.Run("Missing reflection_id maps to 400", func(t *testing.T) {
		path := "/api/v1/checkins/" + checkin.RecordID + "/reflections"
		w := f.do(t, http.MethodPost, path, gin.H{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown check-in maps to 404", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/checkins/ghost/reflections", gin.H{
			"reflection_id": reflection.ID,
		})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
