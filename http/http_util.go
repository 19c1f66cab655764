package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	c "github.com/d0ngw/counter/common"
)

// Resp the json response
type Resp struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Msg     string      `json:"msg"`
}

var errNoparam = errors.New("missing param")

// GetParameter the trimmed value of name
func GetParameter(r url.Values, name string) string {
	return strings.TrimSpace(r.Get(name))
}

// GetInt64Parameter the int64 value of name
func GetInt64Parameter(r url.Values, name string) (val int64, err error) {
	value := GetParameter(r, name)
	if value == "" {
		return 0, errNoparam
	}
	return strconv.ParseInt(value, 10, 64)
}

// RenderJSON write resp as json
func RenderJSON(w http.ResponseWriter, status int, resp *Resp) {
	data, err := c.JSON.Marshal(resp)
	if err != nil {
		c.Errorf("marshal response fail,err:%v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err = w.Write(data); err != nil {
		c.Warnf("write response fail,err:%v", err)
	}
}

// RenderOK write a success response with data
func RenderOK(w http.ResponseWriter, data interface{}) {
	RenderJSON(w, http.StatusOK, &Resp{Success: true, Data: data})
}

// RenderError write a failed response with msg
func RenderError(w http.ResponseWriter, status int, msg string) {
	RenderJSON(w, status, &Resp{Msg: msg})
}
