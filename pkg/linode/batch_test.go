package linode_test

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

func volumeRefs(t *testing.T, client *linode.Client, count int) []*linode.Volume {
	t.Helper()

	volumes := make([]*linode.Volume, 0, count)

	for id := 1; id <= count; id++ {
		volume, err := client.Volumes().Ref(id)
		require.NoError(t, err)

		volumes = append(volumes, volume)
	}

	return volumes
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestBatchExecutor_Execute(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("runs every operation", func(t *testing.T) {
		t.Parallel()

		transport := NewFakeTransport()

		for id := 1; id <= 4; id++ {
			path := fmt.Sprintf("/volumes/%d", id)
			transport.JSON(http.MethodPut, path, map[string]interface{}{})
			transport.JSON(http.MethodGet, path, map[string]interface{}{"id": id, "label": "v"})
		}

		client := newTestClient(t, transport)
		volumes := volumeRefs(t, client, 4)

		require.NoError(t, volumes[0].SetLabel("renamed"))

		var (
			mu        sync.Mutex
			callbacks []string
		)

		callback := func(result *linode.BatchResult) {
			mu.Lock()
			defer mu.Unlock()

			callbacks = append(callbacks, result.ID)
		}

		results, err := linode.NewBatchExecutor(2).Execute(ctx, []linode.BatchOperation{
			{ID: "save", Type: linode.BatchSave, Resource: volumes[0].Resource, Callback: callback},
			{ID: "force", Type: linode.BatchForceSave, Resource: volumes[1].Resource, Callback: callback},
			{ID: "refresh", Type: linode.BatchRefresh, Resource: volumes[2].Resource, Callback: callback},
			{ID: "bogus", Type: "rename", Resource: volumes[3].Resource, Callback: callback},
		})
		require.NoError(t, err)
		require.Len(t, results, 4)

		assert.True(t, results[0].Success)
		assert.True(t, results[1].Success)
		assert.True(t, results[2].Success)
		assert.False(t, results[3].Success)
		require.ErrorIs(t, results[3].Error, linode.ErrUnsupportedOperationType)

		assert.ElementsMatch(t, []string{"save", "force", "refresh", "bogus"}, callbacks)
		assert.True(t, volumes[2].Populated())
		assert.Equal(t, 1, transport.Calls(http.MethodGet, "/volumes/2"), "force save fetches first")
		assert.Equal(t, 0, transport.Calls(http.MethodGet, "/volumes/1"))
	})

	t.Run("rejects duplicate resources", func(t *testing.T) {
		t.Parallel()

		transport := NewFakeTransport()
		client := newTestClient(t, transport)
		volumes := volumeRefs(t, client, 1)

		_, err := linode.NewBatchExecutor(0).Execute(ctx, []linode.BatchOperation{
			{ID: "a", Type: linode.BatchSave, Resource: volumes[0].Resource},
			{ID: "b", Type: linode.BatchRefresh, Resource: volumes[0].Resource},
		})
		require.ErrorIs(t, err, linode.ErrDuplicateBatchResource)
		assert.Empty(t, transport.Requests())
	})

	t.Run("rejects missing resource", func(t *testing.T) {
		t.Parallel()

		_, err := linode.NewBatchExecutor(1).Execute(ctx, []linode.BatchOperation{{ID: "a", Type: linode.BatchSave}})
		require.ErrorIs(t, err, linode.ErrMissingIdentity)
	})
}

func TestSaveAll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("saves dirty resources only", func(t *testing.T) {
		t.Parallel()

		transport := NewFakeTransport()
		transport.JSON(http.MethodPut, "/volumes/1", map[string]interface{}{})
		transport.JSON(http.MethodPut, "/volumes/3", map[string]interface{}{})

		client := newTestClient(t, transport)
		volumes := volumeRefs(t, client, 3)

		require.NoError(t, volumes[0].SetLabel("one"))
		require.NoError(t, volumes[2].SetTags([]string{"prod"}))

		err := linode.SaveAll(ctx, 2, volumes[0].Resource, volumes[1].Resource, volumes[2].Resource)
		require.NoError(t, err)
		assert.Len(t, transport.Requests(), 2)

		for _, volume := range volumes {
			assert.Empty(t, volume.Dirty())
		}
	})

	t.Run("reports failures", func(t *testing.T) {
		t.Parallel()

		transport := NewFakeTransport()
		transport.JSON(http.MethodPut, "/volumes/1", map[string]interface{}{})

		client := newTestClient(t, transport)
		volumes := volumeRefs(t, client, 2)

		require.NoError(t, volumes[0].SetLabel("one"))
		require.NoError(t, volumes[1].SetLabel("two"))

		err := linode.SaveAll(ctx, 1, volumes[0].Resource, volumes[1].Resource)
		require.ErrorIs(t, err, linode.ErrBatchFailed)
		assert.True(t, linode.IsNotFound(err))
		assert.Contains(t, err.Error(), "1 of 2 saves failed")
		assert.Equal(t, []string{"label"}, volumes[1].Dirty())
	})
}
