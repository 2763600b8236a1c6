// Copyright 2020 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package server

import (
	"html/template"
	"net/http"

	"github.com/golang/glog"
)

const statusTemplate = `
<!DOCTYPE html>
<html>
<head>
<title>pascalc on {{.BindAddress}}</title>
</head>
<body>
<h1>pascalc on {{.BindAddress}}</h1>
<p>Build: {{.BuildInfo}}</p>
<p>Programs: {{.ProgramPath}}{{ if .OutputPath }}, artifacts in {{.OutputPath}}{{ end }}</p>
<p>Metrics: <a href="/metrics">prometheus</a></p>
<p>Info: <a href="/progz">progz</a>, <a href="/tracez">tracez</a>, <a href="/rpcz">rpcz</a></p>
<p>Debug: <a href="/debug/pprof">debug/pprof</a>, <a href="/debug/vars">debug/vars</a></p>
`

const statusTemplateEnd = `
</body>
</html>
`

var (
	statusTmpl    = template.Must(template.New("status").Parse(statusTemplate))
	statusEndTmpl = template.Must(template.New("statusend").Parse(statusTemplateEnd))
)

// ServeHTTP satisfies the http.Handler interface, and is used to serve the
// root page of pascalc for online status reporting.
func (m *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data := struct {
		BindAddress string
		BuildInfo   string
		ProgramPath string
		OutputPath  string
	}{
		m.Addr(),
		m.buildInfo.String(),
		m.programPath,
		m.outputPath,
	}
	w.Header().Add("Content-type", "text/html")
	w.WriteHeader(http.StatusOK)
	if err := statusTmpl.Execute(w, data); err != nil {
		glog.Warningf("Error while writing status: %s", err)
		return
	}
	if err := m.r.WriteStatusHTML(w); err != nil {
		glog.Warningf("Error while writing loader status: %s", err)
	}
	if err := statusEndTmpl.Execute(w, data); err != nil {
		glog.Warningf("Error while writing status: %s", err)
	}
}
