package notify

const alertHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>{{if .Event.Test}}Test alert{{else}}{{.Event.Code}}{{end}} – {{.Game}} promo codes</title>
  <style>
    body {
      margin: 0;
      padding: 24px;
      background-color: #f3f4f6;
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif;
      color: #111827;
      line-height: 1.5;
    }

    .container {
      max-width: 640px;
      margin: 0 auto;
      background: #ffffff;
      border-radius: 8px;
      border: 1px solid #e5e7eb;
      overflow: hidden;
    }

    .header {
      padding: 20px 24px;
      background: linear-gradient(135deg, #ff4500 0%, #b33000 100%);
      color: #ffffff;
    }

    .code {
      font-family: "SFMono-Regular", Consolas, monospace;
      font-size: 28px;
      font-weight: 700;
      letter-spacing: 0.08em;
    }

    .section {
      padding: 16px 24px;
      border-top: 1px solid #e5e7eb;
    }

    .label {
      font-size: 12px;
      font-weight: 600;
      text-transform: uppercase;
      color: #6b7280;
    }

    a {
      color: #b33000;
    }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      {{if .Event.Test}}
      <div class="code">Test alert</div>
      <div>Promo code alerts are working.</div>
      {{else}}
      <div>New {{.Game}} promo code</div>
      <div class="code">{{.Event.Code}}</div>
      {{end}}
    </div>
    {{if and (not .Event.Test) .Event.Reward}}
    <div class="section">
      <div class="label">Reward</div>
      <div>{{.Event.Reward}}</div>
    </div>
    {{end}}
    <div class="section">
      <div class="label">Source</div>
      <a href="{{.SourceURL}}">{{.SourceURL}}</a>
    </div>
  </div>
</body>
</html>
`
