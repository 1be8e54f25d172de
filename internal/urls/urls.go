package urls

// ProjectHome is the source repository of this tool
const ProjectHome = "https://github.com/Daisen-Tanaka/line-things-dev-board"

// BoardFirmware hosts the dev board firmware and flashing instructions.
// Boards reporting firmware version 1 need an update from here before
// notifications work.
const BoardFirmware = "https://github.com/line/line-things-dev-board"

// LineThingsDocs is the LINE Things developer documentation
const LineThingsDocs = "https://developers.line.biz/en/docs/line-things/"
