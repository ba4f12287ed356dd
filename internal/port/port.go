// Package port picks the listen address for the mock POS API.
package port

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/itsneelabh/cashier/core"
)

// Environment is the deployment environment the process runs in.
type Environment string

const (
	EnvLocal      Environment = "local"
	EnvContainer  Environment = "container"
	EnvKubernetes Environment = "kubernetes"
)

// DefaultRange is scanned when no port is configured.
const DefaultRange = "8080-8090"

// Request describes what the caller asked for.
type Request struct {
	Host  string
	Port  int    // 0 means pick one
	Range string // "start-end", used when Port is 0 on a local machine
}

// Strategy is the resolved listen address and why it was chosen.
type Strategy struct {
	Host        string
	Port        int
	Source      string
	Environment Environment
}

// Address returns host:port for net.Listen.
func (s Strategy) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// URL returns a browsable base URL for the address.
func (s Strategy) URL() string {
	host := s.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port))
}

// DetectEnvironment inspects well-known variables and files.
func DetectEnvironment() Environment {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" || fileExists("/var/run/secrets/kubernetes.io/serviceaccount/token") {
		return EnvKubernetes
	}
	if os.Getenv("COMPOSE_PROJECT_NAME") != "" || fileExists("/.dockerenv") {
		return EnvContainer
	}
	return EnvLocal
}

// Resolve chooses a port. An explicit port always wins. Containers use a
// fixed 8080 since the runtime maps it. Locally the first free port in the
// range is used, then any port the OS assigns.
func Resolve(req Request, env Environment, logger core.Logger) (Strategy, error) {
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	s := Strategy{Host: req.Host, Environment: env}

	switch {
	case req.Port < 0 || req.Port > 65535:
		return s, fmt.Errorf("port %d out of range: %w", req.Port, core.ErrInvalidConfiguration)
	case req.Port > 0:
		s.Port, s.Source = req.Port, "explicit"
	case env != EnvLocal:
		s.Port, s.Source = 8080, string(env)+"-fixed"
	default:
		start, end, err := parseRange(req.Range)
		if err != nil {
			return s, err
		}
		if p, ok := firstFree(req.Host, start, end); ok {
			s.Port, s.Source = p, "range"
			break
		}
		logger.Warn("No free port in range, asking the OS", map[string]interface{}{"range": req.Range})
		p, err := osAssigned(req.Host)
		if err != nil {
			return s, err
		}
		s.Port, s.Source = p, "os-assigned"
	}

	logger.Info("Port resolved", map[string]interface{}{
		"port":        s.Port,
		"source":      s.Source,
		"environment": string(env),
	})
	return s, nil
}

func parseRange(r string) (int, int, error) {
	if r == "" {
		r = DefaultRange
	}
	parts := strings.Split(r, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("port range %q: %w", r, core.ErrInvalidConfiguration)
	}
	start, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	end, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil || start <= 0 || start > end || end > 65535 {
		return 0, 0, fmt.Errorf("port range %q: %w", r, core.ErrInvalidConfiguration)
	}
	return start, end, nil
}

func firstFree(host string, start, end int) (int, bool) {
	for p := start; p <= end; p++ {
		l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err != nil {
			continue
		}
		l.Close()
		return p, true
	}
	return 0, false
}

func osAssigned(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}
