package internal

func InternalFunc() {}
