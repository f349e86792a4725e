// Package manage provides HTTP handlers for choosing the slide interval.
package manage

import (
	"bytes"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"

	"github.com/tstromberg/exhibition/pkg/exhibition"
)

var pageTmpl = template.Must(template.New("settings").Parse(`<!DOCTYPE html>
<html>
<head><title>exhibition</title></head>
<body>
<h1>Interval between photos</h1>
<form method="post" action="/">
{{ range .Choices }}<label><input type="radio" name="interval" value="{{ .Millis }}"{{ if .Checked }} checked{{ end }}> {{ .Seconds }} seconds</label><br>
{{ end }}<button type="submit">Save</button>
</form>
</body>
</html>
`))

type choice struct {
	Millis  int64
	Seconds int64
	Checked bool
}

// Server is a server for the settings page.
type Server struct {
	prefs *exhibition.Prefs
	frame func() string
}

// New creates a new server. frame returns the path of the frame on display, or "".
func New(prefs *exhibition.Prefs, frame func() string) *Server {
	server := &Server{
		prefs: prefs,
		frame: frame,
	}
	return server
}

// Router returns the handler for all settings routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/", s.PageHandler)
	r.POST("/", s.SubmitHandler)
	r.GET("/api/interval", s.GetIntervalHandler)
	r.PUT("/api/interval", s.PutIntervalHandler)
	r.GET("/frame", s.FrameHandler)
	return r
}

// PageHandler renders the interval choices.
func (s *Server) PageHandler(c *gin.Context) {
	current := s.prefs.Timeout()
	cs := []choice{}
	for _, i := range exhibition.Intervals {
		cs = append(cs, choice{Millis: i.Milliseconds(), Seconds: int64(i / time.Second), Checked: i == current})
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, struct{ Choices []choice }{cs}); err != nil {
		klog.Errorf("render settings: %v", err)
		c.String(http.StatusInternalServerError, "render failed")
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// SubmitHandler stores the interval chosen on the settings page.
func (s *Server) SubmitHandler(c *gin.Context) {
	d, err := exhibition.ParseInterval(c.PostForm("interval"))
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}
	if !s.save(c, d) {
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

type intervalResponse struct {
	IntervalMillis int64   `json:"interval_ms"`
	Choices        []int64 `json:"choices"`
}

type intervalRequest struct {
	IntervalMillis int64 `json:"interval_ms"`
}

// GetIntervalHandler returns the current interval and its choices.
func (s *Server) GetIntervalHandler(c *gin.Context) {
	resp := intervalResponse{IntervalMillis: s.prefs.Timeout().Milliseconds()}
	for _, i := range exhibition.Intervals {
		resp.Choices = append(resp.Choices, i.Milliseconds())
	}
	c.JSON(http.StatusOK, resp)
}

// PutIntervalHandler stores a new interval.
func (s *Server) PutIntervalHandler(c *gin.Context) {
	var req intervalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := time.Duration(req.IntervalMillis) * time.Millisecond
	if !s.save(c, d) {
		return
	}
	c.JSON(http.StatusOK, intervalRequest{IntervalMillis: d.Milliseconds()})
}

func (s *Server) save(c *gin.Context, d time.Duration) bool {
	err := s.prefs.SetTimeout(d)
	if err == nil {
		klog.Infof("interval set to %s", d)
		return true
	}
	if errors.Is(err, exhibition.ErrInvalidInterval) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	klog.Errorf("save interval: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to save interval"})
	return false
}

// FrameHandler serves the frame on display.
func (s *Server) FrameHandler(c *gin.Context) {
	p := ""
	if s.frame != nil {
		p = s.frame()
	}
	if p == "" {
		c.String(http.StatusNotFound, exhibition.EmptyMessage)
		return
	}
	c.File(p)
}
