package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shelfstock-backend/internal/observe"
	"github.com/angelmondragon/shelfstock-backend/pkg/db/dbtest"
	pkgerrors "github.com/angelmondragon/shelfstock-backend/pkg/errors"
)

type harness struct {
	t    *testing.T
	boot bootstrapper
}

func newHarness(t *testing.T) harness {
	t.Helper()
	client := dbtest.New(t)
	a, err := newApp(client, observe.Tracker{})
	require.NoError(t, err)
	// dbtest owns the connection
	a.close = nil
	return harness{t: t, boot: func(context.Context, string) (*app, error) { return a, nil }}
}

func (h harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := newRootCmd(h.boot)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h harness) runJSON(dest any, args ...string) {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err)
	require.NoError(h.t, json.Unmarshal([]byte(out), dest), out)
}

func TestCLIInventoryLifecycle(t *testing.T) {
	h := newHarness(t)

	var product map[string]string
	h.runJSON(&product, "product", "create", "--name", "Hex Bolt", "--id", "UPC=0001")
	productID := product["product_id"]
	require.NotEmpty(t, productID)

	var batch map[string][]string
	h.runJSON(&batch, "container", "create", "--name", "Tote", "--count", "2")
	require.Len(t, batch["container_ids"], 2)
	containerID := batch["container_ids"][0]

	var qty map[string]any
	h.runJSON(&qty, "container", "add", containerID, productID, "5")
	assert.Equal(t, float64(5), qty["quantity"])
	h.runJSON(&qty, "container", "add", containerID, productID, "3")
	assert.Equal(t, float64(8), qty["quantity"])

	_, err := h.run("container", "remove", containerID, productID, "10")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInsufficientQuantity), "got %v", err)

	var shelf map[string]string
	h.runJSON(&shelf, "shelf", "create", "--name", "A1")
	h.runJSON(&map[string]int{}, "shelf", "bind", shelf["shelf_id"], containerID)

	var onShelf []string
	h.runJSON(&onShelf, "shelf", "inspect", shelf["shelf_id"])
	assert.Equal(t, []string{containerID}, onShelf)

	_, err = h.run("shelf", "delete", shelf["shelf_id"])
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeShelfHasContainers), "got %v", err)

	var found []map[string]any
	h.runJSON(&found, "product", "search", "hex", "--by", "name")
	require.Len(t, found, 1)
	assert.Equal(t, "Hex Bolt", found[0]["name"])
}

func TestCLIRejectsMalformedInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("product", "create", "--name", "Nut", "--id", "UPC")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = h.run("container", "add", "c1", "p1", "many")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)

	_, err = h.run("product", "search", "bolt", "--by", "sku")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "got %v", err)
}

func TestPrintErrorIncludesCodeAndDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	printError(buf, pkgerrors.New(pkgerrors.CodeNotFound, "shelf s1 not found").WithDetails(map[string]any{"shelf_id": "s1"}))
	assert.Contains(t, buf.String(), "NOT_FOUND: shelf s1 not found")
	assert.Contains(t, buf.String(), `"shelf_id": "s1"`)
}
