package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeString(t *testing.T) {
	ok := NewSuccess(map[string]string{"id": "L1"}, PageMeta{Offset: 0, Limit: 20, Count: 1})
	assert.JSONEq(t, `{"status":"success","data":{"id":"L1"},"meta":{"offset":0,"limit":20,"count":1}}`, ok.String())

	failed := NewError("NOT_FOUND", "lead not found", nil)
	assert.JSONEq(t, `{"status":"error","code":"NOT_FOUND","error":"lead not found"}`, failed.String())

	assert.Equal(t, "{}", NewSuccess(make(chan int), nil).String())
}
