package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReagentList(t *testing.T) {
	reagents := ReagentList{"Acetonitrile", "Phosphate Buffer"}
	v, err := reagents.Value()
	require.NoError(t, err)
	assert.Equal(t, `["Acetonitrile","Phosphate Buffer"]`, v)

	var scanned ReagentList
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, reagents, scanned)

	// Empty lists persist as NULL and read back absent, whether the driver
	// hands back nil or an empty string.
	v, err = ReagentList{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
	require.NoError(t, scanned.Scan(""))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(42))
}

func TestJSONMap(t *testing.T) {
	snapshot := JSONMap{"equipmentId": "RX-1001", "state": "In Use"}
	v, err := snapshot.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(v))
	assert.Equal(t, "RX-1001", scanned["equipmentId"])
	assert.Equal(t, "In Use", scanned["state"])

	require.NoError(t, scanned.Scan([]byte(`{"state":"Available"}`)))
	assert.Equal(t, JSONMap{"state": "Available"}, scanned)

	v, err = JSONMap{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)

	assert.Error(t, scanned.Scan(3.14))
}
