package respond

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	svcerrors "github.com/R3E-Network/bizhub/internal/errors"
	"github.com/R3E-Network/bizhub/internal/logging"
)

// DefaultSessionName is the cookie session carrying flash data.
const DefaultSessionName = "bizhub_session"

const (
	flashSuccessKey = "_flash_success"
	flashErrorKey   = "_flash_error"
	oldInputKey     = "_old_input"
	errorsKey       = "_errors"
)

// fallbackBody is written when an envelope cannot be encoded.
const fallbackBody = `{"success":false,"error":"internal error","message":"internal error"}`

// URLResolver builds URLs for named routes.
type URLResolver interface {
	URLFor(name string, params map[string]string) (string, bool)
}

// MuxURLs resolves named gorilla/mux routes.
type MuxURLs struct {
	Router *mux.Router
}

// URLFor implements URLResolver.
func (m MuxURLs) URLFor(name string, params map[string]string) (string, bool) {
	if m.Router == nil {
		return "", false
	}
	route := m.Router.Get(name)
	if route == nil {
		return "", false
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}
	u, err := route.URL(pairs...)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// View is the data every page template receives.
type View struct {
	Data     any
	Status   int
	Flash    Flash
	OldInput url.Values
	Errors   map[string]string
}

// Writer serialises outcomes onto an http.ResponseWriter.
type Writer struct {
	store       sessions.Store
	sessionName string
	templates   *template.Template
	urls        URLResolver
	log         *logging.Logger
}

// NewWriter creates a writer. store and templates may be nil for
// data-only deployments; redirects then carry no flash data.
func NewWriter(store sessions.Store, templates *template.Template, urls URLResolver, log *logging.Logger) *Writer {
	if log == nil {
		log = logging.NewDefault("respond")
	}
	return &Writer{
		store:       store,
		sessionName: DefaultSessionName,
		templates:   templates,
		urls:        urls,
		log:         log,
	}
}

// WithSessionName overrides the flash session cookie name.
func (w *Writer) WithSessionName(name string) *Writer {
	if name != "" {
		w.sessionName = name
	}
	return w
}

// Write emits out. The returned error is informational: some response
// has always been written by the time Write returns.
func (w *Writer) Write(rw http.ResponseWriter, r *http.Request, out Outcome) error {
	switch o := out.(type) {
	case Envelope:
		return w.envelope(rw, o)
	case Redirect:
		return w.redirect(rw, r, o)
	case Page:
		return w.page(rw, r, o)
	default:
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("unknown outcome %T", out)
	}
}

// Fail writes a transport-level error, such as an undecodable body, in the
// requested format.
func (w *Writer) Fail(rw http.ResponseWriter, r *http.Request, format Format, err error) error {
	status := http.StatusInternalServerError
	message := "internal error"
	if svcErr := svcerrors.GetServiceError(err); svcErr != nil {
		status = svcErr.HTTPStatus
		message = svcErr.Message
	}
	if format == FormatData {
		return w.envelope(rw, Envelope{Status: status, Body: Body{Error: message, Message: message}})
	}
	return w.redirect(rw, r, Redirect{Target: Back, Flash: Flash{Error: message}})
}

func (w *Writer) envelope(rw http.ResponseWriter, e Envelope) error {
	payload, err := e.Encode()
	status := e.Status
	if err != nil {
		payload = []byte(fallbackBody)
		status = http.StatusInternalServerError
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	if _, werr := rw.Write(payload); werr != nil && err == nil {
		err = werr
	}
	return err
}

func (w *Writer) redirect(rw http.ResponseWriter, r *http.Request, out Redirect) error {
	location := w.resolve(r, out.Target, out.Params)
	err := w.stash(rw, r, out)
	if err != nil {
		w.log.WithContext(r.Context()).WithError(err).Warn("flash data not stored")
	}
	http.Redirect(rw, r, location, http.StatusSeeOther)
	return err
}

func (w *Writer) page(rw http.ResponseWriter, r *http.Request, p Page) error {
	status := p.Status
	if status == 0 {
		status = http.StatusOK
	}
	view := View{Data: p.Data, Status: status}
	if err := w.pull(rw, r, &view); err != nil {
		w.log.WithContext(r.Context()).WithError(err).Warn("flash data not loaded")
	}

	if w.templates == nil {
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("no templates configured for %q", p.Template)
	}
	var buf bytes.Buffer
	if err := w.templates.ExecuteTemplate(&buf, p.Template, view); err != nil {
		http.Error(rw, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return fmt.Errorf("render %s: %w", p.Template, err)
	}
	rw.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw.WriteHeader(status)
	_, err := buf.WriteTo(rw)
	return err
}

// resolve turns a redirect target into a location. Targets are "back", a
// named route, or an absolute path.
func (w *Writer) resolve(r *http.Request, target string, params map[string]string) string {
	if target == "" || target == Back {
		return back(r)
	}
	if w.urls != nil {
		if u, ok := w.urls.URLFor(target, params); ok {
			return u
		}
	}
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		if len(params) == 0 {
			return target
		}
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		return target + sep + q.Encode()
	}
	return back(r)
}

// back is the same-origin referer, or the site root.
func back(r *http.Request) string {
	ref := r.Referer()
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) {
		return "/"
	}
	if u.Path == "" {
		return "/"
	}
	return u.RequestURI()
}

func (w *Writer) stash(rw http.ResponseWriter, r *http.Request, out Redirect) error {
	if w.store == nil {
		return nil
	}
	session, err := w.store.Get(r, w.sessionName)
	if session == nil {
		return err
	}
	if out.Flash.Success != "" {
		session.AddFlash(out.Flash.Success, flashSuccessKey)
	}
	if out.Flash.Error != "" {
		session.AddFlash(out.Flash.Error, flashErrorKey)
	}
	if input := withoutInternal(out.OldInput); len(input) > 0 {
		w.addJSONFlash(r, session, oldInputKey, input)
	}
	if len(out.Errors) > 0 {
		w.addJSONFlash(r, session, errorsKey, out.Errors)
	}
	return session.Save(r, rw)
}

func (w *Writer) pull(rw http.ResponseWriter, r *http.Request, view *View) error {
	if w.store == nil {
		return nil
	}
	session, err := w.store.Get(r, w.sessionName)
	if session == nil {
		return err
	}
	view.Flash.Success = firstFlash(session, flashSuccessKey)
	view.Flash.Error = firstFlash(session, flashErrorKey)
	w.readJSONFlash(r, session, oldInputKey, &view.OldInput)
	w.readJSONFlash(r, session, errorsKey, &view.Errors)
	if session.IsNew {
		return nil
	}
	return session.Save(r, rw)
}

func (w *Writer) addJSONFlash(r *http.Request, session *sessions.Session, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		w.log.WithContext(r.Context()).WithError(err).WithField("flash", key).Debug("flash not stored")
		return
	}
	session.AddFlash(string(raw), key)
}

// readJSONFlash decodes the flash under key into dst. A corrupt value is
// dropped so the page still renders.
func (w *Writer) readJSONFlash(r *http.Request, session *sessions.Session, key string, dst any) {
	raw := firstFlash(session, key)
	if raw == "" {
		return
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		w.log.WithContext(r.Context()).WithError(err).WithField("flash", key).Debug("flash not readable")
	}
}

func firstFlash(session *sessions.Session, key string) string {
	for _, f := range session.Flashes(key) {
		if s, ok := f.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func withoutInternal(in url.Values) url.Values {
	out := url.Values{}
	for k, v := range in {
		if strings.HasPrefix(k, "_") || strings.Contains(strings.ToLower(k), "password") {
			continue
		}
		out[k] = v
	}
	return out
}
