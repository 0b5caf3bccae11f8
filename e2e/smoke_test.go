//go:build e2e

package e2e

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const repoRootRel = ".."             // relative to ./e2e
const mainPkgRel = "./cmd/server"    // server main package
const deviceEUI = "a84041d111896c86" // monitored device

var mqttPort = nat.Port("1883/tcp")

func TestSmoke_UplinkToAPI(t *testing.T) {
	repoRoot := repoRootPath(t)
	host, port := startMosquitto(t)

	bin := buildBinary(t, repoRoot)
	addr := pickFreeAddr(t)
	csvPath := filepath.Join(t.TempDir(), "water_tank_log.csv")

	cmd := exec.Command(bin)
	cmd.Env = append(os.Environ(),
		"APP_ENV=dev",
		"LOG_LEVEL=debug",
		"HTTP_ADDR="+addr,
		"MQTT_BROKER="+host,
		"MQTT_PORT="+port,
		"DEVICE_EUI="+deviceEUI,
		"SAMPLE_LOG=csv",
		"CSV_LOG_PATH="+csvPath,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})

	client := &http.Client{Timeout: 2 * time.Second}
	base := "http://" + addr

	waitFor(t, 10*time.Second, func() bool {
		body, ok := getJSON(client, base+"/healthz")
		return ok && body["mqtt"] == "connected"
	}, "server connected to broker")

	publishUplink(t, host, port, strings.ToUpper(deviceEUI), 7, "HX4=")

	var data map[string]any
	waitFor(t, 10*time.Second, func() bool {
		var ok bool
		data, ok = getJSON(client, base+"/api/tank-data")
		return ok && data["status"] == "online"
	}, "tank data online")

	if data["tank_level"] != 75.5 || data["frame_count"] != float64(7) || data["level_band"] != "good" {
		t.Fatalf("tank-data = %v", data)
	}

	resp, err := client.Get(base + "/api/history")
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	defer resp.Body.Close()
	var history []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history = %v; want one sample", history)
	}

	stopServer(t, cmd)

	b, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read sample log: %v", err)
	}
	if !strings.Contains(string(b), ",75.50,7,-91,7.5") {
		t.Fatalf("sample log = %q", b)
	}
}

func startMosquitto(t *testing.T) (string, string) {
	t.Helper()
	ctx := context.Background()

	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2",
		ExposedPorts: []string{string(mqttPort)},
		// The image ships an anonymous-access config for local testing.
		Cmd:        []string{"mosquitto", "-c", "/mosquitto-no-auth.conf"},
		WaitingFor: wait.ForListeningPort(mqttPort).WithStartupTimeout(30 * time.Second),
	}

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("start mosquitto container: %v", err)
	}
	t.Cleanup(func() {
		_ = c.Terminate(ctx)
	})

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, mqttPort)
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	return host, mapped.Port()
}

func publishUplink(t *testing.T, host, port, devEUI string, fcnt int, data string) {
	t.Helper()

	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%s", host, port)).
		SetClientID("e2e-chirpstack")
	client := paho.NewClient(opts)
	if token := client.Connect(); !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("publisher connect: %v", token.Error())
	}
	defer client.Disconnect(100)

	body := fmt.Sprintf(`{"deviceInfo":{"devEui":%q},"fCnt":%d,"fPort":2,"data":%q,"rxInfo":[{"rssi":-91,"snr":7.5}]}`, devEUI, fcnt, data)
	token := client.Publish("application/1/device/"+strings.ToLower(devEUI)+"/event/up", 1, false, body)
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		t.Fatalf("publish: %v", token.Error())
	}
}

func repoRootPath(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}

	repo := filepath.Clean(filepath.Join(wd, repoRootRel))
	if _, err := os.Stat(filepath.Join(repo, "go.mod")); err != nil {
		t.Fatalf("repo root %q does not contain go.mod: %v", repo, err)
	}
	return repo
}

func buildBinary(t *testing.T, repoRoot string) string {
	t.Helper()

	out := filepath.Join(t.TempDir(), "tankmon")
	build := exec.Command("go", "build", "-o", out, mainPkgRel)
	build.Dir = repoRoot
	build.Env = os.Environ()

	if b, err := build.CombinedOutput(); err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(b))
	}
	return out
}

func pickFreeAddr(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen :0: %v", err)
	}
	defer ln.Close()
	return ln.Addr().String()
}

func getJSON(client *http.Client, url string) (map[string]any, bool) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, false
	}
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, false
	}
	return body, true
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool, what string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("timed out after %s waiting for %s", timeout, what)
}

func stopServer(t *testing.T, cmd *exec.Cmd) {
	t.Helper()

	_ = cmd.Process.Signal(syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		_ = cmd.Process.Kill()
		t.Fatalf("server did not exit in time")
	case err := <-done:
		if err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				t.Fatalf("server exited non-zero: %v", err)
			}
			t.Fatalf("server wait error: %v", err)
		}
	}
}
