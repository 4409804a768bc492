package voiceover

// Recorder captures one take into dir and returns the file name it
// produced there. The prompt is the text the narrator should read;
// front-ends are free to display it or ignore it.
type Recorder interface {
	Record(dir, prompt string) (filename string, err error)
}
