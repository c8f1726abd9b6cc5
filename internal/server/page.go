package server

const statusPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Screen Tutor</title>
<style>
body { font-family: sans-serif; margin: 2em; background: #111; color: #eee; }
.flag { display: inline-block; margin-right: 1em; padding: .2em .6em; border-radius: 4px; background: #333; }
.on { background: #8678F9; }
.user { color: #9cf; }
.ai { color: #cfc; }
</style>
</head>
<body>
<h1>Screen Tutor</h1>
<p>
  <span id="listening" class="flag">listening</span>
  <span id="processing" class="flag">processing</span>
  <span id="speaking" class="flag">speaking</span>
  <button onclick="toggle()">Toggle listening</button>
</p>
<audio id="player" controls></audio>
<div id="conversation"></div>
<script>
let lastAudio = 0;
function flags(s) {
  for (const k of ["listening", "processing", "speaking"]) {
    document.getElementById(k).className = "flag" + (s[k] ? " on" : "");
  }
}
async function toggle() {
  await fetch("/toggle-listening", {method: "POST"});
}
async function pollAudio() {
  const r = await (await fetch("/audio-status")).json();
  flags(r.voice_status);
  if (r.available && r.timestamp > lastAudio) {
    lastAudio = r.timestamp;
    const p = document.getElementById("player");
    p.src = "/get-audio?t=" + r.timestamp;
    p.play().catch(() => {});
  }
}
async function pollConversation() {
  const r = await (await fetch("/conversation")).json();
  const div = document.getElementById("conversation");
  div.innerHTML = "";
  for (const e of r.conversation) {
    const p = document.createElement("p");
    p.className = e.type;
    p.textContent = (e.type === "user" ? "You: " : "Tutor: ") + e.text;
    div.appendChild(p);
  }
}
setInterval(pollAudio, 1000);
setInterval(pollConversation, 2000);
</script>
</body>
</html>
`
