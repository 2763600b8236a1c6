// Copyright 2021 Google Inc. All Rights Reserved.
// This file is available under the Apache license.

package runtime

import (
	"fmt"
	"html/template"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/golang/glog"
	"github.com/mafetri/pascalc/internal/runtime/vm"
)

const loaderTemplate = `
<h2 id="loader">Program Loader</h2>
<table border="1">
<tr>
<th>program name</th>
<th>errors</th>
<th>load errors</th>
<th>load successes</th>
<th>cache hits</th>
<th>unloads</th>
<th>runtime errors</th>
<th>last run error</th>
</tr>
{{range $name := $.Names}}
<tr>
<td>{{ if index $.ProgLoaded $name}}<a href="/progz?prog={{$name}}">{{$name}}</a>{{else}}{{$name}}{{end}}</td>
<td>
{{with index $.Errors $name}}
<pre>{{.}}</pre>
{{else}}
No compile errors
{{end}}
</td>
<td>{{index $.Loaderrors $name}}</td>
<td>{{index $.Loadsuccess $name}}</td>
<td>{{index $.CacheHits $name}}</td>
<td>{{index $.Unloads $name}}</td>
<td>{{index $.RuntimeErrors $name}}</td>
<td><pre>{{index $.RunError $name}}</pre></td>
</tr>
{{end}}
</table>
`

var loaderTmpl = template.Must(template.New("loader").Parse(loaderTemplate))

// WriteStatusHTML writes the current state of the loader as HTML to the given writer w.
func (r *Runtime) WriteStatusHTML(w io.Writer) error {
	data := struct {
		Names         []string
		ProgLoaded    map[string]bool
		Errors        map[string]error
		Loaderrors    map[string]string
		Loadsuccess   map[string]string
		CacheHits     map[string]string
		Unloads       map[string]string
		RuntimeErrors map[string]string
		RunError      map[string]string
	}{
		nil,
		make(map[string]bool),
		make(map[string]error),
		make(map[string]string),
		make(map[string]string),
		make(map[string]string),
		make(map[string]string),
		make(map[string]string),
		make(map[string]string),
	}
	r.programErrorMu.RLock()
	for name, err := range r.programErrors {
		data.Names = append(data.Names, name)
		data.Errors[name] = err
	}
	r.programErrorMu.RUnlock()
	r.programMu.RLock()
	for name, p := range r.programs {
		if _, ok := data.Errors[name]; !ok {
			data.Names = append(data.Names, name)
		}
		data.ProgLoaded[name] = true
		if p.runErr != nil {
			data.RunError[name] = p.runErr.Error()
		}
	}
	r.programMu.RUnlock()
	sort.Strings(data.Names)
	for _, name := range data.Names {
		if v := ProgLoadErrors.Get(name); v != nil {
			data.Loaderrors[name] = v.String()
		}
		if v := ProgLoads.Get(name); v != nil {
			data.Loadsuccess[name] = v.String()
		}
		if v := ProgCacheHits.Get(name); v != nil {
			data.CacheHits[name] = v.String()
		}
		if v := ProgUnloads.Get(name); v != nil {
			data.Unloads[name] = v.String()
		}
		if v := vm.ProgRuntimeErrors.Get(name); v != nil {
			data.RuntimeErrors[name] = v.String()
		}
	}
	return loaderTmpl.Execute(w, data)
}

// ProgzHandler lists the loaded programs, or with ?prog=name shows the
// compiled code of one.  With target=tac or target=mepa only that form is
// shown; with run=1 the program is executed with the integers in the input
// parameter and its output shown.
func (r *Runtime) ProgzHandler(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	prog := q.Get("prog")
	if prog == "" {
		w.Header().Add("Content-type", "text/html")
		fmt.Fprintf(w, "<ul>")
		for _, name := range r.Programs() {
			fmt.Fprintf(w, "<li><a href=\"?prog=%s\">%s</a></li>", template.URLQueryEscaper(name), template.HTMLEscapeString(name))
		}
		fmt.Fprintf(w, "</ul>")
		return
	}
	obj, ok := r.Program(prog)
	if !ok {
		http.Error(w, "No program found", http.StatusNotFound)
		return
	}
	w.Header().Add("Content-type", "text/plain; charset=utf-8")
	if q.Get("run") != "" {
		if err := r.RunProgram(req.Context(), prog, strings.NewReader(q.Get("input")), w); err != nil {
			glog.V(1).Info(err)
			fmt.Fprintf(w, "\nRuntime error:\n%s\n", err)
		}
		return
	}
	switch q.Get("target") {
	case "tac":
		fmt.Fprint(w, obj.TAC())
	case "mepa":
		fmt.Fprintln(w, obj.Mepa())
	case "":
		fmt.Fprintf(w, "Three address code:\n%s\nMEPA:\n%s\n", obj.TAC(), obj.Mepa())
	default:
		http.Error(w, "Unknown target", http.StatusBadRequest)
	}
}
