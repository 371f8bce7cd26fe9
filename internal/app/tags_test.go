package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-packages/internal/ports"
	"fleet-packages/internal/types"
)

func TestTagsApp(t *testing.T) {
	paths := writeFixtures(t)
	result, err := NewService().Tags(context.Background(), TagsRequest{RepoIndexPath: paths.RepoIndex})
	require.NoError(t, err)
	assert.Equal(t, []string{"2019.2.0"}, result.Major)
	assert.Equal(t, []string{"2019.2.0.update"}, result.Updates)
	assert.Equal(t, []string{"2019.2.0.hotfix"}, result.Hotfixes)
}

func TestTagsAppRequiresIndex(t *testing.T) {
	_, err := NewService().Tags(context.Background(), TagsRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repo index file is required")
}

type tagIndex []string

func (tagIndex) Entries(string) ([]types.RepoTuple, error) { return nil, nil }
func (t tagIndex) Tags() ([]string, error)                 { return t, nil }

func TestTagsAppOrdersTagsInDpkgOrder(t *testing.T) {
	service := NewService()
	service.OpenRepoIndex = func(string) ports.RepoIndexPort {
		return tagIndex{
			"2019.2.10", "proposed", "2019.2.9", "2018.4.0", "nightly", "2019.2.0", "2020.1",
			"2019.2.10.hotfix", "2019.2.9.hotfix",
		}
	}
	result, err := service.Tags(context.Background(), TagsRequest{RepoIndexPath: "index.yaml"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2018.4.0", "2019.2.0", "2019.2.9", "2019.2.10", "2020.1", "nightly", "proposed"}, result.Major)
	assert.Equal(t, []string{"2019.2.9.hotfix", "2019.2.10.hotfix"}, result.Hotfixes)
	assert.Empty(t, result.Updates)
}
