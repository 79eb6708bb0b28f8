package config

const SERVER_YML = `
beacon:
  listener:
    port: 3000

sqlite:
  passPhrase: passphrase
`
