package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/church-ops-api/pkg/errors"
)

func TestPositionHandlerAddDuplicateConflict(t *testing.T) {
	handler := NewPositionHandler(&positionServiceStub{err: appErrors.ErrDuplicatePosition})
	c, w := newTestContext(http.MethodPost, "/event-templates/tpl-1/positions", `{"ministryId":"worship"}`)
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}
	asLeader(c)

	handler.Add(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "position already added")
}

func TestPositionHandlerAddBatchReportsSkipped(t *testing.T) {
	handler := NewPositionHandler(&positionServiceStub{})
	c, w := newTestContext(http.MethodPost, "/event-templates/tpl-1/positions/batch", `{"pairs":[{"ministryId":"tech"},{"ministryId":"worship"}]}`)
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}
	asLeader(c)

	handler.AddBatch(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"reason":"already_added"`)
}

func TestPositionHandlerUpdateQuantityBindsDelta(t *testing.T) {
	svc := &positionServiceStub{}
	handler := NewPositionHandler(svc)
	c, w := newTestContext(http.MethodPatch, "/event-templates/tpl-1/positions/pos-1/quantity", `{"delta":-1}`)
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}, {Key: "positionId", Value: "pos-1"}}
	asLeader(c)

	handler.UpdateQuantity(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.quantity.Delta)
	assert.Equal(t, -1, *svc.quantity.Delta)
	assert.Nil(t, svc.quantity.Quantity)
}

func TestPositionHandlerReorderMismatch(t *testing.T) {
	handler := NewPositionHandler(&positionServiceStub{err: appErrors.ErrOrderMismatch})
	c, w := newTestContext(http.MethodPut, "/event-templates/tpl-1/positions/order", `{"ids":["pos-1"]}`)
	c.Params = gin.Params{{Key: "id", Value: "tpl-1"}}
	asLeader(c)

	handler.Reorder(c)

	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), appErrors.ErrOrderMismatch.Code)
}
