package strbuilder

// Builder accumulates output chunks and joins them once at the end.
type Builder struct {
	chunks []string
	size   int
}

func (this *Builder) Place(s string) {
	this.chunks = append(this.chunks, s)
	this.size += len(s)
}

// Line places every part followed by a single newline.
func (this *Builder) Line(parts ...string) {
	for _, p := range parts {
		this.Place(p)
	}
	this.Place("\n")
}

func (this *Builder) Len() int {
	return this.size
}

func (this *Builder) String() string {
	buff := make([]byte, this.size)
	index := 0
	for _, c := range this.chunks {
		copy(buff[index:], c)
		index += len(c)
	}
	return string(buff)
}
