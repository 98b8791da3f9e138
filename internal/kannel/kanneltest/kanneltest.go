// Package kanneltest provides a fake gateway status page for tests.
package kanneltest

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/beevik/etree"

	"github.com/jandubois/check-kannel/internal/kannel"
)

// Canned documents for the failure modes a gateway can show.
const (
	DeniedDocument     = "<gateway>Denied</gateway>"
	WrongRootDocument  = "<status><smsc><id>A</id><status>online 10s</status></smsc></status>"
	MalformedDocument  = "<gateway><smsc><id>A</id>"
	NotXMLDocument     = "Internal Server Error"
	EmptyGatewayStatus = "running, uptime 0d 1h 2m 3s"
)

// Gateway serves a status page and records the requests made to it.
type Gateway struct {
	*httptest.Server

	mu         sync.Mutex
	body       string
	statusCode int
	delay      time.Duration
	passwords  []string
	paths      []string
}

// NewGateway starts a fake gateway serving body with HTTP 200. Callers must
// Close it.
func NewGateway(body string) *Gateway {
	g := &Gateway{body: body, statusCode: http.StatusOK}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	return g
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request) {
	g.mu.Lock()
	g.passwords = append(g.passwords, r.URL.Query().Get("password"))
	g.paths = append(g.paths, r.URL.Path)
	body, code, delay := g.body, g.statusCode, g.delay
	g.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(code)
	w.Write([]byte(body))
}

// SetBody replaces the served document.
func (g *Gateway) SetBody(body string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.body = body
}

// SetStatusCode changes the HTTP status sent with the document.
func (g *Gateway) SetStatusCode(code int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statusCode = code
}

// SetDelay holds every response back by d.
func (g *Gateway) SetDelay(d time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.delay = d
}

// Passwords returns the password query parameter of each request received.
func (g *Gateway) Passwords() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.passwords...)
}

// Paths returns the request path of each request received.
func (g *Gateway) Paths() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.paths...)
}

// HostPort returns the host and port the gateway listens on.
func (g *Gateway) HostPort() (string, int) {
	host, port, _ := net.SplitHostPort(g.Listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return host, n
}

// Document renders a status page the way the gateway lays it out, with one
// smsc element per entry.
func Document(smscs ...kannel.SMSC) string {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0"`)

	gw := doc.CreateElement("gateway")
	gw.CreateElement("version").SetText("1.4.5")
	gw.CreateElement("status").SetText(EmptyGatewayStatus)

	sms := gw.CreateElement("sms")
	sms.CreateElement("received").CreateElement("total").SetText("0")
	sms.CreateElement("sent").CreateElement("total").SetText("0")

	list := gw.CreateElement("smscs")
	list.CreateElement("count").SetText(strconv.Itoa(len(smscs)))
	for i, s := range smscs {
		el := list.CreateElement("smsc")
		el.CreateElement("name").SetText("SMSC:" + s.ID)
		el.CreateElement("admin-id").SetText(strconv.Itoa(i))
		el.CreateElement("id").SetText(s.ID)
		el.CreateElement("status").SetText(s.Status)
		el.CreateElement("failed").SetText("0")
		el.CreateElement("queued").SetText("0")
	}

	doc.Indent(2)
	out, _ := doc.WriteToString()
	return out
}
