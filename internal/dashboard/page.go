package dashboard

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
{{if .RefreshSeconds}}<meta http-equiv="refresh" content="{{.RefreshSeconds}}">{{end}}
<title>Bollinger Breakout Signals</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
table { border-collapse: collapse; min-width: 28rem; }
th, td { padding: .4rem .8rem; border-bottom: 1px solid #ddd; text-align: left; }
td.price { text-align: right; font-variant-numeric: tabular-nums; }
.banner { padding: .6rem 1rem; margin: 1rem 0; border-radius: 4px; }
.signals { background: #e6f4ea; }
.none { background: #e8f0fe; }
.pending { background: #fef7e0; }
.failures { color: #a50e0e; font-size: .9rem; }
</style>
</head>
<body>
<h1>📈 Bollinger Breakout Signals</h1>
<form method="get" action="/">
<label for="deviation">Standard deviation</label>
<select id="deviation" name="deviation" onchange="this.form.submit()">
{{range .Options}}<option value="{{.}}"{{if eq . $.Deviation}} selected{{end}}>{{.}}</option>
{{end}}</select>
<noscript><button type="submit">Apply</button></noscript>
</form>
<p>Window {{.Window}} · interval {{.Interval}}{{if .GeneratedAt}} · data as of {{.GeneratedAt}}{{end}}{{if .RefreshSeconds}} · refreshes every {{.RefreshSeconds}}s{{end}}</p>
{{if .Pending}}
<div class="banner pending">{{.Banner}}</div>
{{else if .HasSignals}}
<div class="banner signals">{{.Banner}}</div>
<table>
<thead><tr><th>Pair</th><th>Price</th><th>Signal</th></tr></thead>
<tbody>
{{range .Rows}}<tr><td>{{.Pair}}</td><td class="price">{{price .Price}}</td><td>{{.Signal}}</td></tr>
{{end}}</tbody>
</table>
{{else}}
<div class="banner none">{{.Banner}}</div>
{{end}}
{{if .Failures}}
<div class="failures">
<p>Unavailable pairs:</p>
<ul>
{{range .Failures}}<li>{{.Symbol}}: {{.Kind}}</li>
{{end}}</ul>
</div>
{{end}}
</body>
</html>
`
