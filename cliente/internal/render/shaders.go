package render

// voxelVertexShader repassa UV de página do atlas, cor e normal.
const voxelVertexShader = `
#version 330
in vec3 vertexPosition;
in vec2 vertexTexCoord;
in vec3 vertexNormal;
in vec4 vertexColor;

uniform mat4 mvp;

out vec2 fragTexCoord;
out vec4 fragColor;
out vec3 fragNormal;

void main() {
    fragTexCoord = vertexTexCoord;
    fragColor = vertexColor;
    fragNormal = vertexNormal;
    gl_Position = mvp * vec4(vertexPosition, 1.0);
}
`

// voxelFragmentShader aplica a textura da página com uma luz direcional fixa.
const voxelFragmentShader = `
#version 330
in vec2 fragTexCoord;
in vec4 fragColor;
in vec3 fragNormal;

uniform sampler2D texture0;
uniform vec4 colDiffuse;

out vec4 finalColor;

void main() {
    vec4 texelColor = texture(texture0, fragTexCoord);
    if (texelColor.a < 0.01) discard;

    vec3 lightDir = normalize(vec3(0.4, 1.0, 0.3));
    float diffuse = 0.45 + 0.55 * max(dot(normalize(fragNormal), lightDir), 0.0);

    vec4 color = texelColor * fragColor * colDiffuse;
    finalColor = vec4(color.rgb * diffuse, color.a);
}
`
