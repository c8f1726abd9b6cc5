package screen

// Name of the intermediate file inside the capturer's temp dir
const ScreenshotFile = "screenshot.png"
