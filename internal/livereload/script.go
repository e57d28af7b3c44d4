package livereload

import (
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/themebuilder/internal/logfields"
)

// clientScript connects back to the origin it was loaded from. CSS changes
// swap stylesheets in place; anything else reloads the page.
const clientScript = `(() => {
  if (window.__THEMEBUILDER_LR__) return;
  window.__THEMEBUILDER_LR__ = true;
  const origin = new URL(document.currentScript.src).origin;
  function refreshCSS(path) {
    let swapped = false;
    document.querySelectorAll('link[rel="stylesheet"]').forEach((link) => {
      const url = new URL(link.href);
      if (!path.endsWith(url.pathname.split('/').pop())) return;
      url.searchParams.set('livereload', Date.now());
      link.href = url.toString();
      swapped = true;
    });
    return swapped;
  }
  function connect() {
    const es = new EventSource(origin + '/events');
    es.addEventListener('reload', (e) => {
      try {
        const msg = JSON.parse(e.data);
        if (msg.liveCSS && msg.path.endsWith('.css') && refreshCSS(msg.path)) return;
      } catch (_) {}
      console.log('[themebuilder] change detected, reloading');
      location.reload();
    });
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();
`

func handleScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := w.Write([]byte(clientScript)); err != nil {
		slog.Error("Failed to write live-reload script", logfields.Error(err))
	}
}
