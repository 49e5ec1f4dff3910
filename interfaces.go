/***Dedicated to the long life of the Ven. Khenpo Phuntzok Tenzin Rinpoche***/

package chem

//Errors

// Error is the interface for errors that all packages in this library implement. The Decorate method allows to add and retrieve info from the
// error, without changing it's type or wrapping it around something else.
// The errors also implement Unwrap, so they can be inspected with errors.Is and errors.As.
type Error interface {
	Error() string
	Decorate(string) []string //It allows you to add information when you pass it up. Each call also returns the "decoration" slice of strins resulting from the current call. If passed an empty string, it should just return the current value, not add the empty string to the slice.
	//The decorate slice should contain a list of functions in the calling stack, plus, for each function any relevant information, or nothing. If information is to be added to an element of the slice, it should be in this format: "FunctionName: Extra info"
}

// FileError is an error related to a file in some format.
type FileError interface {
	Error
	FileName() string
	Format() string
	Critical() bool
}

// LastFrameError has a useless function to distinguish the harmless errors (i.e. the end of a file) so they can be
// filtered in a typeswitch that looks for this interface.
type LastFrameError interface {
	FileError
	NormalLastFrameTermination() //does nothing, just to separate this interface from other FileError's
}
